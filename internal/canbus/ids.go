// Package canbus implements the 100 Hz TX scheduler, the seven
// per-protocol wire-format encoders, and the RX dispatcher, grounded
// on the original firmware's can.cpp and can/can_*.cpp files.
package canbus

// Internal-protocol key IDs. In the original firmware these come from
// a header shared with the ECU tooling and must never be redefined
// per protocol file; here they're the one place that owns them.
const (
	WBDataBaseAddr  uint32 = 0x15000000
	WBMsgECUStatus  uint32 = 0x15000F00
	WBMsgSetIndex   uint32 = 0x15000F01
	WBBLEnter       uint32 = 0x15000F02
	WBAck           uint32 = 0x15000F03
	wbBLHeader      uint32 = 0x15000000
)

const rusefiWidebandVersion uint16 = 3

// Vendor-protocol base IDs, one constant block per protocol so each
// encoder file stays self-contained.
const (
	aemNetUEGOBaseID uint32 = 0x00000180
	aemNetEGT1BaseID uint32 = 0x0000BA00
	aemNetEGT2BaseID uint32 = 0x0000BB00

	ecuMasterBaseID         uint32 = 0x664
	ecuMasterClassicEGTBase uint32 = 0x610
	ecuMasterBlackEGTBase   uint32 = 0x660

	haltechWB2BaseID uint32 = 0x2B0
	haltechTCABaseID uint32 = 0x2CC

	linkEcuAfrBaseID    uint32 = 0x3B6
	linkEcuInBaseID     uint32 = 0x3BE
	linkEcuSetIdxID     uint32 = 0x3BC
	linkEcuTCCxxBaseID  uint32 = 0x705
	linkEcuTCCxxData3ID uint32 = 0x707
	linkEcuTCCxxStatID  uint32 = 0x708

	emtronELCBaseID  uint32 = 0x28F
	emtronETC4BaseID uint32 = 0x2B3

	motecLTCBaseID  uint32 = 0x460
	motecE888BaseID uint32 = 0x0F0
)

// wbHeader extracts the header bits WB_MSG_GET_HEADER would, used to
// filter internal-protocol frames from everything else on the bus.
func wbHeader(id uint32) uint32 {
	return id &^ 0xFFF
}

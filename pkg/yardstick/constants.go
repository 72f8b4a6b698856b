package yardstick

import "time"

// USB Device Identifiers
const (
	VendorID  = 0x1D50
	ProductID = 0x605B // YardStick One
)

// USB Endpoint Configuration
const (
	EP5Number        = 5
	EP5OutBufferSize = 516
	ResponseMarker   = 0x40 // '@' character marks start of response
)

// USB Timeouts
const (
	USBDefaultTimeout = 1000 * time.Millisecond
	usbReadSlice      = 100 * time.Millisecond
)

// Application IDs for EP5 protocol
const (
	AppNIC    = 0x42 // Radio NIC operations
	AppSystem = 0xFF // System/administrative commands
)

// System Commands (APP_SYSTEM = 0xFF)
const (
	SysCmdPeek    = 0x80 // Read memory
	SysCmdPoke    = 0x81 // Write memory
	SysCmdPing    = 0x82 // Echo test
	SysCmdPartNum = 0x8E // Get chip part number
)

// NIC Commands (APP_NIC = 0x42)
const (
	NICSetAmpMode = 0x0A // Set amplifier mode
)

// Amplifier Mode values
const (
	AmpModeOff = 0x00
	AmpModeOn  = 0x01
)

// Radio Strobe Commands (RFST register values)
const (
	RFSTSrx   = 0x02 // Enable RX
	RFSTSidle = 0x04 // Idle mode
)

// Radio register addresses (XDATA)
const (
	RegPKTCTRL1  = 0xDF03
	RegFREQ2     = 0xDF09 // Frequency control word, high byte
	RegFREQ1     = 0xDF0A // Frequency control word, middle byte
	RegFREQ0     = 0xDF0B // Frequency control word, low byte
	RegMDMCFG2   = 0xDF0E
	RegRSSI      = 0xDF3A
	RegPKTSTATUS = 0xDF3C
	RegRFST      = 0xDFE1
)

// Register fields touched by intercept mode
const (
	MDMCFG2SyncModeMask = 0x07 // SYNC_MODE[2:0]
	PKTCTRL1AddrChkMask = 0x03 // ADR_CHK[1:0]
	PKTSTATUSCarrier    = 0x40 // CS
)

// Crystal frequency for YardStick One (CC1111)
const CrystalFreqHz = 24000000

// RSSIOffsetDBm is the CC1111 RSSI offset at typical data rates
const RSSIOffsetDBm = 74.0

// PartNumCC1111 is the PARTNUM reported by the YardStick One radio
const PartNumCC1111 = 0x11

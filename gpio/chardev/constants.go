package chardev

// Ioctl numbers and flags of the GPIO character device uAPI (v1), from
// include/uapi/linux/gpio.h.
const gpioGetChipinfoIoctl uintptr = 0x8044b401
const gpioGetLineinfoIoctl uintptr = 0xc048b402
const gpioGetLinehandleIoctl uintptr = 0xc16cb403
const gpioGetLineeventIoctl uintptr = 0xc030b404
const gpiohandleGetLineValuesIoctl uintptr = 0xc040b408
const gpiohandleSetLineValuesIoctl uintptr = 0xc040b409

// LineFlag describes the informational flags of a line.
type LineFlag uint32

const LineKernel LineFlag = 0x00000001
const LineIsOut LineFlag = 0x00000002
const LineActiveLow LineFlag = 0x00000004
const LineOpenDrain LineFlag = 0x00000008
const LineOpenSource LineFlag = 0x00000010

type requestFlag uint32

const requestInput requestFlag = 0x00000001
const requestOutput requestFlag = 0x00000002
const requestActiveLow requestFlag = 0x00000004
const requestOpenDrain requestFlag = 0x00000008
const requestOpenSource requestFlag = 0x00000010
const requestBiasPullUp requestFlag = 0x00000020
const requestBiasPullDown requestFlag = 0x00000040
const requestBiasDisable requestFlag = 0x00000080

type eventFlag uint32

const eventRisingEdge eventFlag = 0x00000001
const eventFallingEdge eventFlag = 0x00000002

const eventDataSize = 16

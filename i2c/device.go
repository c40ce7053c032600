package i2c

// Device binds a Bus to one device address and implements Conn.
type Device struct {
	bus     *Bus
	address uint16
}

func (b *Bus) GetDevice(address uint16) *Device {
	return &Device{
		bus:     b,
		address: address,
	}
}

func (d *Device) Transfer(writeBuf []byte, readBuf []byte) error {
	return d.bus.Transfer(d.address, writeBuf, readBuf)
}

// WriteCmd sends a single command byte.
func (d *Device) WriteCmd(cmd uint8) error {
	return d.Transfer([]byte{cmd}, nil)
}

func (d *Device) WriteReg8(reg uint8, value uint8) error {
	return d.Transfer([]byte{reg, value}, nil)
}

func (d *Device) ReadReg8(reg uint8) (uint8, error) {
	read := make([]byte, 1)

	err := d.Transfer([]byte{reg}, read)
	if err != nil {
		return 0, err
	}

	return read[0], nil
}

func (d *Device) ReadReg16(reg uint8) (uint16, error) {
	read := make([]byte, 2)

	err := d.Transfer([]byte{reg}, read)
	if err != nil {
		return 0, err
	}

	return uint16(read[0])<<8 | uint16(read[1]), nil
}

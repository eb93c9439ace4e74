package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const credentialFormatVersionCurrent = 1

// ErrCorruptCredential is returned when a stored record cannot be decoded.
var ErrCorruptCredential = errors.New("corrupt credential record")

// Encode serializes c. ClientID is part of the key and is not encoded.
func Encode(c *Credential) ([]byte, error) {
	if c == nil {
		return nil, errors.New("nil credential")
	}
	if len(c.Token) > math.MaxUint16 {
		return nil, errors.New("token too long")
	}

	var buf bytes.Buffer
	buf.Grow(1 + 2 + len(c.Token) + 16)

	buf.WriteByte(credentialFormatVersionCurrent)
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(c.Token))); err != nil {
		return nil, err
	}
	buf.WriteString(c.Token)

	if err := binary.Write(&buf, binary.BigEndian, c.SavedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, c.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a record produced by [Encode].
func Decode(data []byte) (*Credential, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrCorruptCredential
	}
	if version != credentialFormatVersionCurrent {
		return nil, fmt.Errorf("%w: version %d", ErrCorruptCredential, version)
	}

	var tokenLen uint16
	if err := binary.Read(reader, binary.BigEndian, &tokenLen); err != nil {
		return nil, ErrCorruptCredential
	}
	token := make([]byte, tokenLen)
	if _, err := io.ReadFull(reader, token); err != nil {
		return nil, ErrCorruptCredential
	}

	c := &Credential{Token: string(token)}
	if err := binary.Read(reader, binary.BigEndian, &c.SavedAt); err != nil {
		return nil, ErrCorruptCredential
	}
	if err := binary.Read(reader, binary.BigEndian, &c.ExpiresAt); err != nil {
		return nil, ErrCorruptCredential
	}
	if reader.Len() != 0 {
		return nil, ErrCorruptCredential
	}

	return c, nil
}

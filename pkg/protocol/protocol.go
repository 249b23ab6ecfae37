package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"bidindex/pkg/common"
)

const (
	MagicNumber = 0x42

	OpInsert = 0x01
	OpSearch = 0x02
	OpRemove = 0x03
	OpDump   = 0x04
	OpStats  = 0x05

	RespOK  = 0x00
	RespErr = 0xFF
	RespVal = 0x01

	HeaderSize = 8
	MaxKeySize = math.MaxUint16
	// MaxValueSize bounds a single frame body.
	MaxValueSize = 64 << 20
)

var (
	ErrInvalidMagic  = errors.New("invalid magic number")
	ErrFrameTooLarge = errors.New("frame too large")
	ErrShortRecord   = errors.New("truncated record")
)

type Packet struct {
	Op    byte
	Key   []byte
	Value []byte
}

// Encode writes one frame: [magic][op][keyLen u16][valLen u32][key][value].
func Encode(w io.Writer, op byte, key []byte, value []byte) error {
	if len(key) > MaxKeySize || len(value) > MaxValueSize {
		return ErrFrameTooLarge
	}

	buf := make([]byte, HeaderSize, HeaderSize+len(key)+len(value))
	buf[0] = MagicNumber
	buf[1] = op
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(key)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(value)))
	buf = append(buf, key...)
	buf = append(buf, value...)

	_, err := w.Write(buf)
	return err
}

func Decode(r io.Reader) (*Packet, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	if header[0] != MagicNumber {
		return nil, ErrInvalidMagic
	}

	op := header[1]
	kLen := binary.BigEndian.Uint16(header[2:4])
	vLen := binary.BigEndian.Uint32(header[4:8])
	if vLen > MaxValueSize {
		return nil, ErrFrameTooLarge
	}

	key := make([]byte, kLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}

	val := make([]byte, vLen)
	if _, err := io.ReadFull(r, val); err != nil {
		return nil, err
	}

	return &Packet{Op: op, Key: key, Value: val}, nil
}

// AppendRecord appends rec as three length-prefixed strings (id, title, fund)
// followed by the amount's IEEE-754 bits.
func AppendRecord(b []byte, rec common.Record) []byte {
	for _, s := range []string{rec.ID, rec.Title, rec.Fund} {
		b = binary.BigEndian.AppendUint32(b, uint32(len(s)))
		b = append(b, s...)
	}
	return binary.BigEndian.AppendUint64(b, math.Float64bits(rec.Amount))
}

// ReadRecord decodes one record from the front of b and returns the rest.
func ReadRecord(b []byte) (common.Record, []byte, error) {
	var fields [3]string
	for i := range fields {
		if len(b) < 4 {
			return common.Record{}, nil, ErrShortRecord
		}
		n := binary.BigEndian.Uint32(b)
		b = b[4:]
		if uint64(len(b)) < uint64(n) {
			return common.Record{}, nil, ErrShortRecord
		}
		fields[i] = string(b[:n])
		b = b[n:]
	}
	if len(b) < 8 {
		return common.Record{}, nil, ErrShortRecord
	}
	amount := math.Float64frombits(binary.BigEndian.Uint64(b))
	rec := common.Record{ID: fields[0], Title: fields[1], Fund: fields[2], Amount: amount}
	return rec, b[8:], nil
}

// EncodeRecords writes a record count followed by each record.
func EncodeRecords(records []common.Record) []byte {
	b := binary.BigEndian.AppendUint32(nil, uint32(len(records)))
	for _, r := range records {
		b = AppendRecord(b, r)
	}
	return b
}

func DecodeRecords(data []byte) ([]common.Record, error) {
	if len(data) < 4 {
		return nil, ErrShortRecord
	}
	count := binary.BigEndian.Uint32(data)
	data = data[4:]

	records := make([]common.Record, 0, min(int(count), 4096))
	for i := uint32(0); i < count; i++ {
		r, rest, err := ReadRecord(data)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, r)
		data = rest
	}
	return records, nil
}

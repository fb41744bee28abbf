package repositories

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Values are stored as protobuf wire messages. Field numbers are part of the
// on-disk format and must never be reused.
const (
	userFieldUsername     protowire.Number = 1
	userFieldDisplayName  protowire.Number = 2
	userFieldPasswordHash protowire.Number = 3
	userFieldCreatedAt    protowire.Number = 4

	ledgerFieldScope        protowire.Number = 1
	ledgerFieldDestination  protowire.Number = 2
	ledgerFieldExpectedSize protowire.Number = 3
	ledgerFieldPartialPath  protowire.Number = 4
	ledgerFieldCreatedAt    protowire.Number = 5
)

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

// record collects the fields of one decoded message. Unknown fields are skipped.
type record struct {
	strings map[protowire.Number]string
	ints    map[protowire.Number]int64
}

func decodeRecord(b []byte) (record, error) {
	r := record{strings: map[protowire.Number]string{}, ints: map[protowire.Number]int64{}}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return record{}, protowire.ParseError(n)
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return record{}, protowire.ParseError(m)
			}
			r.ints[num] = protowire.DecodeZigZag(v)
			n = m
		case protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return record{}, protowire.ParseError(m)
			}
			r.strings[num] = v
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return record{}, protowire.ParseError(n)
			}
		}
		b = b[n:]
	}
	return r, nil
}

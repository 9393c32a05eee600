// Copyright 2026 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dump

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the wire format:
//
//	message Dump {
//	  string name = 1;
//	  string language = 2;
//	  repeated Record records = 3;
//	}
//
//	message Record {
//	  string type = 1;
//	  bytes text = 2;
//	  int64 start = 3;
//	  int64 end = 4;
//	  int32 line = 5;
//	  int32 column = 6;
//	}
const (
	dumpName     protowire.Number = 1
	dumpLanguage protowire.Number = 2
	dumpRecords  protowire.Number = 3

	recordType   protowire.Number = 1
	recordText   protowire.Number = 2
	recordStart  protowire.Number = 3
	recordEnd    protowire.Number = 4
	recordLine   protowire.Number = 5
	recordColumn protowire.Number = 6
)

var errWireType = errors.New("unexpected wire type")

// MarshalProto encodes the dump in the protobuf wire format.
func (d Dump) MarshalProto() []byte {
	var b []byte
	b = appendString(b, dumpName, d.Name)
	b = appendString(b, dumpLanguage, d.Language)
	for _, rec := range d.Records {
		b = protowire.AppendTag(b, dumpRecords, protowire.BytesType)
		b = protowire.AppendBytes(b, rec.marshalProto())
	}
	return b
}

func (rec Record) marshalProto() []byte {
	var b []byte
	b = appendString(b, recordType, rec.Type)
	if len(rec.Text) > 0 {
		b = protowire.AppendTag(b, recordText, protowire.BytesType)
		b = protowire.AppendBytes(b, rec.Text)
	}
	b = appendVarint(b, recordStart, uint64(rec.Start))
	b = appendVarint(b, recordEnd, uint64(rec.End))
	b = appendVarint(b, recordLine, uint64(rec.Line))
	b = appendVarint(b, recordColumn, uint64(rec.Column))
	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// UnmarshalProto decodes a dump encoded by MarshalProto. Unknown fields are skipped; a known field with the wrong wire
// type is an error.
func UnmarshalProto(data []byte) (Dump, error) {
	var d Dump
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case dumpName, dumpLanguage, dumpRecords:
			if typ != protowire.BytesType {
				return 0, fmt.Errorf("dump field %d: %w", num, errWireType)
			}
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			switch num {
			case dumpName:
				d.Name = string(v)
			case dumpLanguage:
				d.Language = string(v)
			default:
				rec, err := unmarshalRecord(v)
				if err != nil {
					return 0, err
				}
				d.Records = append(d.Records, rec)
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return d, err
}

func unmarshalRecord(data []byte) (Record, error) {
	var rec Record
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case recordType, recordText:
			if typ != protowire.BytesType {
				return 0, fmt.Errorf("record field %d: %w", num, errWireType)
			}
			v, n := protowire.ConsumeBytes(b)
			if num == recordType {
				rec.Type = string(v)
			} else {
				rec.Text = append([]byte(nil), v...)
			}
			return n, nil
		case recordStart, recordEnd, recordLine, recordColumn:
			if typ != protowire.VarintType {
				return 0, fmt.Errorf("record field %d: %w", num, errWireType)
			}
			v, n := protowire.ConsumeVarint(b)
			switch num {
			case recordStart:
				rec.Start = int64(v)
			case recordEnd:
				rec.End = int64(v)
			case recordLine:
				rec.Line = int(v)
			default:
				rec.Column = int(v)
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return rec, err
}

// consumeFields walks the fields of a message. field consumes the value of one field and returns its length, or a
// negative protowire error code.
func consumeFields(data []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		m, err := field(num, typ, data)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		data = data[m:]
	}
	return nil
}

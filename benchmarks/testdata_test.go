package benchmarks

import (
	"testing"

	msgp "github.com/tinylib/msgp/msgp"

	"github.com/sparrowcbor/cbor"
)

// TestData exercises a broad, realistic mix of scalar/array/map shapes
// so the CBOR Value model and tinylib/msgp's hand-rolled append/read
// primitives can be compared on the same payload.
type TestData struct {
	Name    string
	Age     int64
	Email   string
	Active  bool
	Balance float64
	Tags    []string
	Scores  map[string]int64
}

func encodeMsgpTestData(data TestData) []byte {
	var buf []byte
	buf = msgp.AppendString(buf, data.Name)
	buf = msgp.AppendInt64(buf, data.Age)
	buf = msgp.AppendString(buf, data.Email)
	buf = msgp.AppendBool(buf, data.Active)
	buf = msgp.AppendFloat64(buf, data.Balance)

	buf = msgp.AppendArrayHeader(buf, uint32(len(data.Tags)))
	for _, tag := range data.Tags {
		buf = msgp.AppendString(buf, tag)
	}

	buf = msgp.AppendMapHeader(buf, uint32(len(data.Scores)))
	for k, v := range data.Scores {
		buf = msgp.AppendString(buf, k)
		buf = msgp.AppendInt64(buf, v)
	}

	return buf
}

func encodeCBORTestData(data TestData) []byte {
	tags := make([]cbor.Value, len(data.Tags))
	for i, tag := range data.Tags {
		tags[i] = cbor.NewTextString(tag)
	}
	scoreEntries := make([]cbor.MapEntry, 0, len(data.Scores))
	for k, v := range data.Scores {
		scoreEntries = append(scoreEntries, cbor.MapEntry{
			Key:   cbor.NewKey(cbor.NewTextString(k)),
			Value: signedOrUnsigned(v),
		})
	}

	v := cbor.NewArray([]cbor.Value{
		cbor.NewTextString(data.Name),
		signedOrUnsigned(data.Age),
		cbor.NewTextString(data.Email),
		boolSimple(data.Active),
		cbor.NewFloat64(data.Balance),
		cbor.NewArray(tags),
		cbor.NewMap(scoreEntries),
	})
	out, err := cbor.EncodeValue(v, cbor.EncodeOptions{})
	if err != nil {
		panic(err)
	}
	return out
}

func signedOrUnsigned(n int64) cbor.Value {
	if n >= 0 {
		return cbor.NewUnsigned(uint64(n))
	}
	return cbor.NewNegative(n)
}

func boolSimple(b bool) cbor.Value {
	if b {
		return cbor.NewSimple(cbor.SimpleTrue)
	}
	return cbor.NewSimple(cbor.SimpleFalse)
}

func decodeMsgpTestData(b []byte) error {
	buf := b
	var err error

	// Scalars
	_, buf, err = msgp.ReadStringBytes(buf)
	if err != nil {
		return err
	}
	_, buf, err = msgp.ReadInt64Bytes(buf)
	if err != nil {
		return err
	}
	_, buf, err = msgp.ReadStringBytes(buf)
	if err != nil {
		return err
	}
	_, buf, err = msgp.ReadBoolBytes(buf)
	if err != nil {
		return err
	}
	_, buf, err = msgp.ReadFloat64Bytes(buf)
	if err != nil {
		return err
	}

	// Tags array
	var arrSize uint32
	arrSize, buf, err = msgp.ReadArrayHeaderBytes(buf)
	if err != nil {
		return err
	}
	for j := uint32(0); j < arrSize; j++ {
		_, buf, err = msgp.ReadStringBytes(buf)
		if err != nil {
			return err
		}
	}

	// Scores map
	var mapSize uint32
	mapSize, buf, err = msgp.ReadMapHeaderBytes(buf)
	if err != nil {
		return err
	}
	for j := uint32(0); j < mapSize; j++ {
		_, buf, err = msgp.ReadStringBytes(buf)
		if err != nil {
			return err
		}
		_, buf, err = msgp.ReadInt64Bytes(buf)
		if err != nil {
			return err
		}
	}

	return nil
}

func decodeCBORTestData(b []byte) error {
	v, _, err := cbor.DecodeValue(b, cbor.ReaderOptions{})
	if err != nil {
		return err
	}
	items, _ := v.Items()
	_, _ = items[0].Text()
	if _, ok := items[1].Unsigned(); !ok {
		items[1].Int64()
	}
	_, _ = items[2].Text()
	items[3].Simple()
	items[4].Float64()
	tags, _ := items[5].Items()
	for _, tag := range tags {
		tag.Text()
	}
	scores, _ := items[6].Entries()
	for _, e := range scores {
		e.Key.Value().Text()
		if _, ok := e.Value.Unsigned(); !ok {
			e.Value.Int64()
		}
	}
	return nil
}

func TestTestDataPrimitivePathsParity(t *testing.T) {
	data := TestData{
		Name:    "Alice Johnson",
		Age:     30,
		Email:   "alice@example.com",
		Active:  true,
		Balance: 12345.67,
		Tags:    []string{"premium", "verified", "active"},
		Scores:  map[string]int64{"math": 95, "science": 88, "history": 92},
	}

	cases := []struct {
		name string
		enc  func(TestData) []byte
		dec  func([]byte) error
	}{
		{"msgp", encodeMsgpTestData, decodeMsgpTestData},
		{"cbor", encodeCBORTestData, decodeCBORTestData},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.enc(data)
			if len(b) == 0 {
				t.Fatalf("%s: empty encoding", tc.name)
			}
			if err := tc.dec(b); err != nil {
				t.Fatalf("%s: decode err: %v", tc.name, err)
			}
		})
	}
}

func BenchmarkCBOR_TestData_Encode(b *testing.B) {
	data := TestData{
		Name: "Alice Johnson", Age: 30, Email: "alice@example.com", Active: true,
		Balance: 12345.67, Tags: []string{"premium", "verified", "active"},
		Scores: map[string]int64{"math": 95, "science": 88, "history": 92},
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = encodeCBORTestData(data)
	}
}

func BenchmarkMsgp_TestData_Encode(b *testing.B) {
	data := TestData{
		Name: "Alice Johnson", Age: 30, Email: "alice@example.com", Active: true,
		Balance: 12345.67, Tags: []string{"premium", "verified", "active"},
		Scores: map[string]int64{"math": 95, "science": 88, "history": 92},
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = encodeMsgpTestData(data)
	}
}

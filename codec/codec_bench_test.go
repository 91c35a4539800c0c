package codec

import (
	"testing"
)

func benchRecord() record {
	power := make([]float32, 64)
	for i := range power {
		power[i] = float32(i) * 0.25
	}
	return record{Partition: 3, Index: 123456789, Freq: 100.125, Power: power}
}

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkCodecUnmarshal[T any](b *testing.B, c Codec, data []byte, dst *T) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var v T
	b.ResetTimer()
	for b.Loop() {
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
	if dst != nil {
		*dst = v
	}
}

func BenchmarkCodec_Marshal_Record(b *testing.B) {
	r := benchRecord()

	b.Run("go-json", func(b *testing.B) { benchmarkCodecMarshal(b, GoJSON{}, r) })
	b.Run("json", func(b *testing.B) { benchmarkCodecMarshal(b, JSON{}, r) })
	b.Run("yaml", func(b *testing.B) { benchmarkCodecMarshal(b, YAML{}, r) })
}

func BenchmarkCodec_Unmarshal_Record(b *testing.B) {
	r := benchRecord()

	b.Run("go-json", func(b *testing.B) {
		var sink record
		benchmarkCodecUnmarshal(b, GoJSON{}, MustMarshal(GoJSON{}, r), &sink)
		_ = sink
	})
	b.Run("json", func(b *testing.B) {
		var sink record
		benchmarkCodecUnmarshal(b, JSON{}, MustMarshal(JSON{}, r), &sink)
		_ = sink
	})
	b.Run("yaml", func(b *testing.B) {
		var sink record
		benchmarkCodecUnmarshal(b, YAML{}, MustMarshal(YAML{}, r), &sink)
		_ = sink
	})
}

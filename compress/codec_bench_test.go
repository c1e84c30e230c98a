package compress

import "testing"

func BenchmarkAllCodecs_Compress(b *testing.B) {
	data := arenaLike(1 << 20)

	for name, codec := range getAllCodecs() {
		b.Run(name, func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for b.Loop() {
				if _, err := codec.Compress(data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkAllCodecs_Decompress(b *testing.B) {
	data := arenaLike(1 << 20)

	for name, codec := range getAllCodecs() {
		compressed, err := codec.Compress(data)
		if err != nil {
			b.Fatal(err)
		}

		b.Run(name, func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for b.Loop() {
				if _, err := codec.Decompress(compressed); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

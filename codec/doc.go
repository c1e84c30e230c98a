// Package codec encodes structured values into a compact tagged binary form
// and reads them back in place through views.
//
// Values are built with Map and List, encoded by an Encoder, copied into an
// allocator block and opened with NewMapView or NewListView:
//
//	m := codec.NewMap().PutInt32("id", 7).PutString("name", "probe")
//	enc, _ := codec.NewEncoder()
//	defer enc.Release()
//	b, _ := enc.EncodeMap(m)
//	p, _ := a.AllocateAndClone(b)
//	view, _ := codec.NewMapView(a, p)
//	id, _ := view.GetInt32("id")
//
// Wire format: every value starts with a one-byte tag. Maps and lists carry a
// 16-bit body length after the tag; map entries are a one-byte key length, the
// key bytes and a tagged value. Strings are a one-byte length followed by UTF-8
// bytes. Multi-byte numbers use the byte order of the allocator.
package codec

package tl

// Combine merges N independently-produced frames into one combined frame,
// deduplicating repeated strings and map keys through a shared dictionary
// (spec.md §9's merge-for-batching idea, generalized from the teacher's
// Sereal-specific Merger). Where the teacher's mergeItem walks and copies
// raw Sereal tag bytes with an ad hoc typeCOPY-offset table, Combine
// decodes each frame with a shared Decoder and re-emits every value
// through a shared Encoder: every String short enough to intern, and
// every map key, naturally flows through wireDictionary's lookup/insert on
// the way back out, so the Nth occurrence of a repeated key or short
// string across frames costs a DictIndex instead of another full payload.
//
// The input frames are decoded against seed itself, so its extended tier
// gains every word they intern. The combined frame is encoded against a
// fresh dictionary holding only seed's seed tier, and decodes back, with a
// decoder seeded with the same words, into a single VectorDynamic value
// holding each input frame's top-level value, in order.
func Combine(frames [][]byte, seed *Dictionary) ([]byte, error) {
	if seed == nil {
		seed = NewDictionary(nil)
	}

	values := make([]Value, 0, len(frames))
	dec := NewDecoder(nil, func(d *Decoder) { d.dict = seed })
	for _, frame := range frames {
		dec.Reset(frame)
		v, err := dec.Decode()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	enc := NewEncoder(WithDictionary(NewDictionary(seed.seedWords)))
	return enc.Encode(VectorDynamic(values))
}

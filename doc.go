/*
Package tl implements a self-describing binary serialization codec:
constructor-tagged values, a two-tier string dictionary, repeat-run
compression for immediately-repeated scalars, per-value raw-deflate
compression, and a custom-type extension mechanism.

Encode a value tree with Encoder:

	enc := tl.NewEncoder()
	frame, err := enc.Encode(tl.String("hello"))

Decode it back with Decoder:

	dec := tl.NewDecoder(frame)
	v, err := dec.Decode()

The Writer and Reader types adapt the codec to chunked I/O.
*/
package tl

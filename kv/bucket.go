// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket namespaces keys of a shared store by a prefix.
type Bucket string

// ProxyGetPutter creates a store whose keys, batches included, are prefixed by the bucket.
func (b Bucket) ProxyGetPutter(src GetPutter) GetPutter {
	return &bucketStore{
		bucketGetter: bucketGetter{b, src},
		bucketPutter: bucketPutter{b, src},
		src:          src,
	}
}

func (b Bucket) key(k []byte) []byte {
	return append([]byte(b), k...)
}

type bucketGetter struct {
	b   Bucket
	src Getter
}

func (g *bucketGetter) Get(key []byte) ([]byte, error) { return g.src.Get(g.b.key(key)) }
func (g *bucketGetter) Has(key []byte) (bool, error)   { return g.src.Has(g.b.key(key)) }
func (g *bucketGetter) IsNotFound(err error) bool      { return g.src.IsNotFound(err) }
func (g *bucketGetter) NewIterator(r Range) Iterator {
	from := g.b.key(r.From)
	var to []byte
	if len(r.To) == 0 {
		to = prefixLimit([]byte(g.b))
	} else {
		to = g.b.key(r.To)
	}
	return &bucketIterator{g.b, g.src.NewIterator(Range{From: from, To: to})}
}

type bucketPutter struct {
	b   Bucket
	src Putter
}

func (p *bucketPutter) Put(key, value []byte) error { return p.src.Put(p.b.key(key), value) }
func (p *bucketPutter) Delete(key []byte) error     { return p.src.Delete(p.b.key(key)) }

type bucketStore struct {
	bucketGetter
	bucketPutter
	src GetPutter
}

func (s *bucketStore) NewBatch() Batch {
	batch := s.src.NewBatch()
	return &bucketBatch{bucketPutter{s.bucketPutter.b, batch}, batch}
}

type bucketBatch struct {
	bucketPutter
	batch Batch
}

func (b *bucketBatch) Len() int     { return b.batch.Len() }
func (b *bucketBatch) Write() error { return b.batch.Write() }

type bucketIterator struct {
	b Bucket
	Iterator
}

// Key returns the key with the bucket prefix trimmed.
func (i *bucketIterator) Key() []byte {
	return i.Iterator.Key()[len(i.b):]
}

// prefixLimit returns the smallest key greater than every key starting with prefix.
func prefixLimit(prefix []byte) []byte {
	limit := append([]byte(nil), prefix...)
	for i := len(limit) - 1; i >= 0; i-- {
		if limit[i] < 0xff {
			limit[i]++
			return limit[:i+1]
		}
	}
	return nil
}

package bboltx

import "go.etcd.io/bbolt"

// BucketParent is an interface for types that contain buckets, satisfied by
// *bbolt.Tx and *bbolt.Bucket.
type BucketParent interface {
	Bucket([]byte) *bbolt.Bucket
	CreateBucketIfNotExists([]byte) (*bbolt.Bucket, error)
	DeleteBucket([]byte) error
}

var (
	_ BucketParent = (*bbolt.Tx)(nil)
	_ BucketParent = (*bbolt.Bucket)(nil)
)

// CreateBucketIfNotExists creates nested buckets with names given by the
// elements of path.
func CreateBucketIfNotExists(p BucketParent, path ...[]byte) *bbolt.Bucket {
	if len(path) == 0 {
		panic("at least one path element must be provided")
	}

	var (
		b   *bbolt.Bucket
		err error
	)

	for _, n := range path {
		b, err = p.CreateBucketIfNotExists(n)
		Must(err)

		p = b
	}

	return b
}

// TryBucket gets nested buckets with names given by the elements of path.
//
// ok is false if any of the nested buckets does not exist.
func TryBucket(p BucketParent, path ...[]byte) (b *bbolt.Bucket, ok bool) {
	if len(path) == 0 {
		panic("at least one path element must be provided")
	}

	for _, n := range path {
		b = p.Bucket(n)
		if b == nil {
			return nil, false
		}

		p = b
	}

	return b, true
}

// Put writes a value to a bucket.
func Put(b *bbolt.Bucket, k, v []byte) {
	err := b.Put(k, v)
	Must(err)
}

// DeleteBucketIfExists deletes the nested bucket at path, if it exists.
func DeleteBucketIfExists(p BucketParent, path ...[]byte) {
	if len(path) == 0 {
		panic("at least one path element must be provided")
	}

	last := len(path) - 1

	if len(path) > 1 {
		var ok bool
		p, ok = TryBucket(p, path[:last]...)
		if !ok {
			return
		}
	}

	if p.Bucket(path[last]) == nil {
		return
	}

	Must(p.DeleteBucket(path[last]))
}

package keypath

// Segment is one step of a path: an object key or an array index.
type Segment struct {
	Key   string
	Index int // -1 when the segment is a key.
}

// KeySegment creates an object-key segment.
func KeySegment(key string) Segment {
	return Segment{Key: key, Index: -1}
}

// IndexSegment creates an array-index segment.
func IndexSegment(index int) Segment {
	return Segment{Index: index}
}

// IsIndex reports whether the segment addresses an array element.
func (s Segment) IsIndex() bool {
	return s.Index >= 0
}

// Path is an immutable sequence of segments. Methods that extend a path
// return a new value and never alias the receiver's backing array.
type Path struct {
	Segments []Segment
}

// Root is the path of the document itself.
var Root = Path{}

// Key returns p extended by an object key.
func (p Path) Key(key string) Path {
	return p.with(KeySegment(key))
}

// Index returns p extended by an array index.
func (p Path) Index(i int) Path {
	return p.with(IndexSegment(i))
}

// Join returns p followed by all segments of other.
func (p Path) Join(other Path) Path {
	segs := make([]Segment, 0, len(p.Segments)+len(other.Segments))
	segs = append(segs, p.Segments...)
	segs = append(segs, other.Segments...)
	return Path{Segments: segs}
}

// IsRoot reports whether p addresses the document root.
func (p Path) IsRoot() bool {
	return len(p.Segments) == 0
}

func (p Path) with(s Segment) Path {
	segs := make([]Segment, len(p.Segments), len(p.Segments)+1)
	copy(segs, p.Segments)
	return Path{Segments: append(segs, s)}
}

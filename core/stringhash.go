package core

import (
	"fmt"
	"sync"
)

// StringHash is a 32-bit case-insensitive SDBM hash of a name, used as the
// identity of event types, event parameters and sound categories.
type StringHash uint32

// hashNames keeps a reverse mapping for diagnostics. Write-once per name,
// read from log paths only.
var hashNames sync.Map // StringHash -> string

// NewStringHash hashes name. ASCII case is folded so "Music" and "music"
// name the same category.
func NewStringHash(name string) StringHash {
	var h uint32
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		h = uint32(c) + h*65599
	}
	hash := StringHash(h)
	hashNames.LoadOrStore(hash, name)
	return hash
}

// String returns the name the hash was created from, or the hex value if
// the hash arrived from outside this process.
func (h StringHash) String() string {
	if name, ok := hashNames.Load(h); ok {
		return name.(string)
	}
	return fmt.Sprintf("%08x", uint32(h))
}

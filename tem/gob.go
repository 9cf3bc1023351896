package tem

import (
	"encoding/gob"
	"fmt"
	"os"
)

// SaveGob caches the built elevation model so repeated runs over the same
// terrain skip the build.
func (t *TEM) SaveGob(fp string) error {
	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf(" tem.SaveGob %v", err)
	}
	if err := gob.NewEncoder(f).Encode(t); err != nil {
		return fmt.Errorf(" tem.SaveGob %v", err)
	}
	f.Close()
	return nil
}

// LoadGob reads a cached elevation model.
func LoadGob(fp string) (*TEM, error) {
	var t TEM
	f, err := os.Open(fp)
	if err != nil {
		return nil, err
	}
	enc := gob.NewDecoder(f)
	err = enc.Decode(&t)
	if err != nil {
		return nil, err
	}
	f.Close()
	return &t, nil
}

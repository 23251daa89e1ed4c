package clipboard

import (
	"errors"
	"log"
	"sync"

	"golang.design/x/clipboard"
)

var (
	writeMu  sync.Mutex
	initOnce sync.Once
	initErr  error
)

// Init prepares the system clipboard. It is safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		initErr = clipboard.Init()
		if initErr != nil {
			log.Printf("CLIPBOARD: init failed: %v", initErr)
		}
	})
	return initErr
}

// WriteImage places PNG bytes on the clipboard as an image. Writes are
// serialized so parallel captures cannot interleave.
func WriteImage(png []byte) error {
	if len(png) == 0 {
		return errors.New("no image data")
	}
	if err := Init(); err != nil {
		return err
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtImage, png)
	log.Printf("CLIPBOARD: wrote %d PNG bytes", len(png))
	return nil
}

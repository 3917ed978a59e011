package imageclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ImageIterator walks a listing response lazily, one descriptor at a time.
// It is finite and cannot be restarted; call Close when abandoning it early.
//
//	it, err := client.ListImages(ctx)
//	if err != nil { ... }
//	defer it.Close()
//	for it.Next() {
//		use(it.Descriptor())
//	}
//	if err := it.Err(); err != nil { ... }
type ImageIterator struct {
	body    io.ReadCloser
	dec     *json.Decoder
	current ImageDescriptor
	err     error

	started bool
	done    bool
	index   int

	onDone    func(error)
	closeOnce sync.Once
}

type listElement struct {
	ImageID *string `json:"imageId"`
}

// NewImageIterator reads a listing payload from body, for example one served from a fixture.
func NewImageIterator(body io.ReadCloser) *ImageIterator {
	return newImageIterator(body, nil)
}

func newImageIterator(body io.ReadCloser, onDone func(error)) *ImageIterator {
	return &ImageIterator{
		body:   body,
		dec:    json.NewDecoder(body),
		onDone: onDone,
	}
}

// Next advances to the next descriptor. It returns false at the end of the
// sequence or on error; check Err afterwards.
func (it *ImageIterator) Next() bool {
	if it.done {
		return false
	}

	if !it.started {
		it.started = true
		tok, err := it.dec.Token()
		if err != nil {
			return it.fail(fmt.Errorf("reading response: %w", err))
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return it.fail(fmt.Errorf("expected a JSON array, got %v", tok))
		}
	}

	if !it.dec.More() {
		if _, err := it.dec.Token(); err != nil {
			return it.fail(fmt.Errorf("reading response: %w", err))
		}
		// The array must be the whole body.
		if tok, err := it.dec.Token(); !errors.Is(err, io.EOF) {
			if err != nil {
				return it.fail(fmt.Errorf("unexpected data after listing: %w", err))
			}
			return it.fail(fmt.Errorf("unexpected data after listing: %v", tok))
		}
		it.finish(nil)
		return false
	}

	var element listElement
	if err := it.dec.Decode(&element); err != nil {
		return it.fail(fmt.Errorf("element %d: %w", it.index, err))
	}
	if element.ImageID == nil {
		return it.fail(fmt.Errorf("element %d: missing imageId", it.index))
	}

	it.current = ImageDescriptor{ImageID: *element.ImageID}
	it.index++
	return true
}

func (it *ImageIterator) Descriptor() ImageDescriptor {
	return it.current
}

// Err returns the *ListError that stopped iteration, if any.
func (it *ImageIterator) Err() error {
	return it.err
}

// Close releases the response body. It is safe to call more than once.
func (it *ImageIterator) Close() error {
	var err error
	it.closeOnce.Do(func() {
		err = it.body.Close()
	})
	if !it.done {
		it.done = true
		if it.onDone != nil {
			it.onDone(nil)
		}
	}
	return err
}

// Collect drains the remaining descriptors.
func (it *ImageIterator) Collect() ([]ImageDescriptor, error) {
	defer it.Close()

	descriptors := make([]ImageDescriptor, 0)
	for it.Next() {
		descriptors = append(descriptors, it.Descriptor())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return descriptors, nil
}

func (it *ImageIterator) fail(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &syntaxErr) {
		err = fmt.Errorf("malformed listing payload: %w", err)
	}
	it.err = &ListError{Err: err}
	it.finish(it.err)
	return false
}

func (it *ImageIterator) finish(err error) {
	it.current = ImageDescriptor{}
	it.done = true
	it.closeOnce.Do(func() {
		_ = it.body.Close()
	})
	if it.onDone != nil {
		it.onDone(err)
	}
}

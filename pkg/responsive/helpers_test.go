package responsive

import (
	"context"
	"fmt"
	"sync"

	"github.com/matzehuels/imgflow/pkg/transform"
	"github.com/matzehuels/imgflow/pkg/vfile"
)

func ptr[T any](v T) *T { return &v }

func size(s string) *SizeSpec { return ptr(SizeSpec(s)) }

// fakeTransformer reports a fixed source size and renders a text
// description of the effective resize and codec.
type fakeTransformer struct {
	width, height int
	metaErr       error
	renderErr     error

	mu    sync.Mutex
	calls [][]transform.Operation
}

func (f *fakeTransformer) Metadata(ctx context.Context, data []byte) (transform.Metadata, error) {
	if f.metaErr != nil {
		return transform.Metadata{}, f.metaErr
	}
	return transform.Metadata{Width: f.width, Height: f.height, Format: transform.FormatPNG}, nil
}

func (f *fakeTransformer) Render(ctx context.Context, data []byte, ops []transform.Operation) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ops)
	f.mu.Unlock()
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	var r transform.Resize
	for _, op := range ops {
		if rs, ok := op.(transform.Resize); ok {
			r = rs
		}
	}
	enc := ops[len(ops)-1].(transform.Encode)
	return []byte(fmt.Sprintf("%s %dx%d", enc.Format, r.Width, r.Height)), nil
}

func (f *fakeTransformer) renders() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newFile(rel string) *vfile.File {
	return vfile.New("/work", "/work/src", "/work/src/"+rel, []byte("source"))
}

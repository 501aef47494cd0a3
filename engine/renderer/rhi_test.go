package renderer

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/basalto/engine/core"
)

const kindFake = Kind(200)

// nextFake is handed out by the registered factory. Tests swap it
// before calling Initialize to script the backend's behavior.
var nextFake = &fakeBackend{}

func init() {
	Register(kindFake, func() Backend { return nextFake })
}

type fakeBackend struct {
	initErr     error
	initialized bool
	shutdowns   int

	// creations counts every Create call that reached the backend.
	creations int
	lastName  string
}

type fakeFramebuffer struct {
	RefCount
	width   uint32
	height  uint32
	formats []Format
}

func (f *fakeFramebuffer) Width() uint32               { return f.width }
func (f *fakeFramebuffer) Height() uint32              { return f.height }
func (f *fakeFramebuffer) AttachmentFormats() []Format { return f.formats }

type fakePass struct {
	RefCount
	bound  bool
	begins int
	ends   int
}

func (p *fakePass) Begin() error {
	p.bound = true
	p.begins++
	return nil
}

func (p *fakePass) End() error {
	p.bound = false
	p.ends++
	return nil
}

type fakeShader struct{ RefCount }

type fakeTexture struct {
	RefCount
	width, height uint32
}

func (t *fakeTexture) Width() uint32  { return t.width }
func (t *fakeTexture) Height() uint32 { return t.height }

type fakeSwapSurface struct{ images int }

func (s *fakeSwapSurface) Destroy()                 {}
func (s *fakeSwapSurface) Resize(w, h uint32) error { return nil }
func (s *fakeSwapSurface) ImageCount() int          { return s.images }

type fakeContext struct{}

func (c *fakeContext) Destroy() {}
func (c *fakeContext) Present() {}

func (b *fakeBackend) Initialize(cfg *BackendConfig) error {
	if b.initErr != nil {
		return b.initErr
	}
	b.initialized = true
	return nil
}

func (b *fakeBackend) Shutdown() { b.shutdowns++ }

func (b *fakeBackend) CreateFramebuffer(desc *FramebufferDescription) (Framebuffer, error) {
	b.creations++
	b.lastName = desc.DebugName
	formats := make([]Format, len(desc.Attachments))
	for i, a := range desc.Attachments {
		formats[i] = a.Format
	}
	fb := &fakeFramebuffer{width: desc.Width, height: desc.Height, formats: formats}
	fb.InitRefCount(desc.DebugName, func() {})
	return fb, nil
}

func (b *fakeBackend) CreateRenderPass(desc *RenderPassDescription) (RenderPass, error) {
	b.creations++
	b.lastName = desc.DebugName
	p := &fakePass{}
	p.InitRefCount(desc.DebugName, func() {})
	return p, nil
}

func (b *fakeBackend) CreateShader(desc *ShaderDescription) (Shader, error) {
	b.creations++
	b.lastName = desc.DebugName
	s := &fakeShader{}
	s.InitRefCount(desc.DebugName, func() {})
	return s, nil
}

func (b *fakeBackend) CreateTexture2D(desc *Texture2DDescription) (Texture2D, error) {
	b.creations++
	b.lastName = desc.DebugName
	t := &fakeTexture{width: desc.Width, height: desc.Height}
	t.InitRefCount(desc.DebugName, func() {})
	return t, nil
}

func (b *fakeBackend) CreateSwapSurface(desc *SwapSurfaceDescription) (SwapSurface, error) {
	b.creations++
	return &fakeSwapSurface{images: 3}, nil
}

func (b *fakeBackend) CreateRenderingContext(desc *RenderingContextDescription) (RenderingContext, error) {
	b.creations++
	return &fakeContext{}, nil
}

// initializedRHI wires a fresh fake backend into a fresh facade.
func initializedRHI(t *testing.T) (*RHI, *fakeBackend) {
	t.Helper()
	nextFake = &fakeBackend{}
	r := NewRHI()
	if err := r.Initialize(&Config{Kind: kindFake, ApplicationName: "test"}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return r, nextFake
}

// expectAbort fails the test unless fn panics with a contract violation.
func expectAbort(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		recovered := recover()
		if recovered == nil {
			t.Fatal("expected a contract-violation panic")
		}
		if _, ok := recovered.(core.ContractViolation); !ok {
			t.Fatalf("panic value is %T, want core.ContractViolation", recovered)
		}
	}()
	fn()
}

func TestInitializeTwice(t *testing.T) {
	r, _ := initializedRHI(t)

	err := r.Initialize(&Config{Kind: kindFake})
	if !errors.Is(err, core.ErrAlreadyInitialized) {
		t.Errorf("second Initialize: got %v, want ErrAlreadyInitialized", err)
	}
	if !r.IsInitialized() {
		t.Error("failed re-initialization must not tear down the active backend")
	}
	if r.Kind() != kindFake {
		t.Errorf("Kind: got %s, want the original backend", r.Kind())
	}
}

func TestInitializeUnregisteredKind(t *testing.T) {
	r := NewRHI()
	err := r.Initialize(&Config{Kind: Kind(250)})
	if !errors.Is(err, core.ErrNoBackend) {
		t.Errorf("got %v, want ErrNoBackend", err)
	}
	if r.IsInitialized() {
		t.Error("facade must stay uninitialized")
	}
}

func TestInitializeBackendFailure(t *testing.T) {
	sentinel := errors.New("no devices")
	nextFake = &fakeBackend{initErr: sentinel}

	r := NewRHI()
	err := r.Initialize(&Config{Kind: kindFake})
	if !errors.Is(err, sentinel) {
		t.Fatalf("got %v, want the backend's error", err)
	}
	if r.IsInitialized() {
		t.Fatal("facade must stay uninitialized after a backend failure")
	}

	// Resource creation on the dead facade is a contract violation.
	expectAbort(t, func() {
		r.CreateTexture2D(&Texture2DDescription{Width: 1, Height: 1, Format: FormatRGBA8Unorm})
	})
}

func TestCreateBeforeInitializeAborts(t *testing.T) {
	r := NewRHI()
	expectAbort(t, func() {
		r.CreateFramebuffer(&FramebufferDescription{Width: 1, Height: 1})
	})
}

func TestShutdown(t *testing.T) {
	r, backend := initializedRHI(t)
	r.Shutdown()
	if backend.shutdowns != 1 {
		t.Errorf("backend shutdowns: got %d, want 1", backend.shutdowns)
	}
	if r.IsInitialized() {
		t.Error("facade still initialized after Shutdown")
	}

	// Shutting down an uninitialized facade logs and returns.
	r.Shutdown()
	if backend.shutdowns != 1 {
		t.Errorf("redundant Shutdown reached the backend: %d calls", backend.shutdowns)
	}
}

func TestRenderPassCountMismatchRejectedBeforeBackend(t *testing.T) {
	r, backend := initializedRHI(t)

	fb, err := r.CreateFramebuffer(&FramebufferDescription{
		Width:  64,
		Height: 64,
		Attachments: []AttachmentDescription{
			{Format: FormatBGRA8Unorm},
			{Format: FormatD24UnormS8Uint},
		},
	})
	if err != nil {
		t.Fatalf("CreateFramebuffer: %v", err)
	}
	if backend.creations != 1 {
		t.Fatalf("creations after framebuffer: got %d, want 1", backend.creations)
	}

	_, err = r.CreateRenderPass(&RenderPassDescription{
		Target:      fb,
		Attachments: []AttachmentOps{{Load: LoadOpClear}},
	})
	if err == nil {
		t.Fatal("mismatched behavior count must be rejected")
	}
	if backend.creations != 1 {
		t.Errorf("rejected pass reached the backend: %d creations", backend.creations)
	}
}

func TestRenderPassBeginEnd(t *testing.T) {
	r, _ := initializedRHI(t)

	fb, err := r.CreateFramebuffer(&FramebufferDescription{
		Width:  64,
		Height: 64,
		Attachments: []AttachmentDescription{
			{Format: FormatBGRA8Unorm},
			{Format: FormatD24UnormS8Uint},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	pass, err := r.CreateRenderPass(&RenderPassDescription{
		Target: fb,
		Attachments: []AttachmentOps{
			{Load: LoadOpClear, Store: StoreOpPreserve},
			{Load: LoadOpClear, Store: StoreOpDiscard},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	fake := pass.(*fakePass)
	if err := pass.Begin(); err != nil {
		t.Fatal(err)
	}
	if !fake.bound {
		t.Error("Begin did not bind the pass")
	}
	if err := pass.End(); err != nil {
		t.Fatal(err)
	}
	if fake.bound {
		t.Error("End did not unbind the pass")
	}
	if fake.begins != 1 || fake.ends != 1 {
		t.Errorf("begin/end counts: got %d/%d, want 1/1", fake.begins, fake.ends)
	}
}

func TestCreateFramebufferValidation(t *testing.T) {
	r, backend := initializedRHI(t)

	if _, err := r.CreateFramebuffer(&FramebufferDescription{Width: 0, Height: 32}); err == nil {
		t.Error("zero extent must be rejected")
	}
	if _, err := r.CreateFramebuffer(&FramebufferDescription{Width: 32, Height: 32}); err == nil {
		t.Error("empty attachment set must be rejected")
	}

	expectAbort(t, func() {
		r.CreateFramebuffer(&FramebufferDescription{
			Width:  32,
			Height: 32,
			Attachments: []AttachmentDescription{
				{Format: FormatD32Float},
				{Format: FormatD24UnormS8Uint},
			},
		})
	})

	if backend.creations != 0 {
		t.Errorf("rejected framebuffers reached the backend: %d creations", backend.creations)
	}
}

func TestCreateTexturePayloadValidation(t *testing.T) {
	r, backend := initializedRHI(t)

	_, err := r.CreateTexture2D(&Texture2DDescription{
		Width:  2,
		Height: 2,
		Format: FormatRGBA8Unorm,
		Pixels: make([]byte, 15),
	})
	if err == nil {
		t.Error("short payload must be rejected")
	}

	_, err = r.CreateTexture2D(&Texture2DDescription{
		Width:  2,
		Height: 2,
		Format: FormatD32Float,
		Pixels: make([]byte, 16),
	})
	if err == nil {
		t.Error("depth formats take no pixel payload")
	}

	if backend.creations != 0 {
		t.Errorf("rejected textures reached the backend: %d creations", backend.creations)
	}

	_, err = r.CreateTexture2D(&Texture2DDescription{
		Width:  2,
		Height: 2,
		Format: FormatRGBA8Unorm,
		Pixels: make([]byte, 16),
	})
	if err != nil {
		t.Errorf("exact payload rejected: %v", err)
	}
}

func TestCreateShaderNoStages(t *testing.T) {
	r, backend := initializedRHI(t)
	if _, err := r.CreateShader(&ShaderDescription{DebugName: "empty"}); err == nil {
		t.Error("shader without bytecode must be rejected")
	}
	if backend.creations != 0 {
		t.Errorf("rejected shader reached the backend: %d creations", backend.creations)
	}
}

func TestCreateSwapSurfaceNilWindow(t *testing.T) {
	r, backend := initializedRHI(t)
	if _, err := r.CreateSwapSurface(&SwapSurfaceDescription{}); err == nil {
		t.Error("nil window must be rejected")
	}
	if _, err := r.CreateRenderingContext(&RenderingContextDescription{}); err == nil {
		t.Error("nil window must be rejected")
	}
	if backend.creations != 0 {
		t.Errorf("rejected creations reached the backend: %d", backend.creations)
	}
}

func TestDebugNameFallback(t *testing.T) {
	r, backend := initializedRHI(t)

	desc := ShaderDescription{DebugName: ""}
	desc.Stages[ShaderStageVertex] = []byte{1, 2, 3, 4}
	if _, err := r.CreateShader(&desc); err != nil {
		t.Fatal(err)
	}
	if backend.lastName == "" {
		t.Error("blank debug name must be replaced with a generated one")
	}
	if desc.DebugName != "" {
		t.Error("caller's description was mutated")
	}

	named := desc
	named.DebugName = "skybox"
	if _, err := r.CreateShader(&named); err != nil {
		t.Fatal(err)
	}
	if backend.lastName != "skybox" {
		t.Errorf("explicit name: backend saw %q, want skybox", backend.lastName)
	}
}

func TestRegistry(t *testing.T) {
	if !Registered(kindFake) {
		t.Error("fake kind should be registered")
	}
	if Registered(Kind(251)) {
		t.Error("unknown kind reported as registered")
	}

	expectAbort(t, func() { Register(Kind(252), nil) })
	expectAbort(t, func() { Register(kindFake, func() Backend { return nil }) })
}

/*
shaderc translates WGSL shader source into the formats the engine
backends consume. It compiles a single file or a whole directory, and
with -watch it stays running and recompiles sources as they change.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/basalto/engine"
	"github.com/spaghettifunk/basalto/engine/assets"
	"github.com/spaghettifunk/basalto/engine/assets/loaders"
	"github.com/spaghettifunk/basalto/engine/core"
	"github.com/spaghettifunk/basalto/engine/renderer"
	"github.com/spaghettifunk/basalto/engine/shaderc"
)

// defineFlag accumulates repeated -define key=value pairs.
type defineFlag map[string]string

func (d defineFlag) String() string {
	pairs := make([]string, 0, len(d))
	for key, value := range d {
		pairs = append(pairs, key+"="+value)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (d defineFlag) Set(arg string) error {
	key, value, ok := strings.Cut(arg, "=")
	if !ok || key == "" {
		return fmt.Errorf("define %q is not of the form key=value", arg)
	}
	d[key] = value
	return nil
}

type compiler struct {
	translator *shaderc.Translator
	outDir     string
	entry      string
	defines    map[string]string
	forceDebug bool

	// stageSet overrides the stage token in the file name.
	stage    renderer.ShaderStage
	stageSet bool
}

func main() {
	configPath := flag.String("config", "basalto.toml", "engine configuration supplying the defaults")
	targetName := flag.String("target", "", "output format: spirv, hlsl or msl (default from config)")
	stageName := flag.String("stage", "", "pipeline stage when the file name carries no stage token")
	entryPoint := flag.String("entry", "", "entry point name (default derives from the stage)")
	debug := flag.Bool("debug", false, "keep debug symbols in the output regardless of build kind")
	outDir := flag.String("out", "", "output directory (default from config)")
	watch := flag.Bool("watch", false, "stay running and recompile sources as they change")
	defines := make(defineFlag)
	flag.Var(defines, "define", "preprocessor define key=value (repeatable)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: shaderc [options] [file-or-directory]\n\nTranslates WGSL shaders for the engine backends.\n\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  shaderc assets/shaders/lit.frag.wgsl\n")
		fmt.Fprintf(os.Stderr, "  shaderc -target hlsl -out build/shaders assets/shaders\n")
		fmt.Fprintf(os.Stderr, "  shaderc -watch -define MAX_LIGHTS=8 assets/shaders\n")
	}
	flag.Parse()

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		core.LogError("%s", err.Error())
		os.Exit(1)
	}
	core.SetLogLevel(cfg.Renderer.LogLevel)

	name := *targetName
	if name == "" {
		name = cfg.Shaders.Target
	}
	target, err := shaderc.TargetFromString(name)
	if err != nil {
		core.LogError("%s", err.Error())
		os.Exit(1)
	}

	translator, err := shaderc.New(shaderc.Config{Target: target, Build: core.ActiveBuild})
	if err != nil {
		core.LogError("%s", err.Error())
		os.Exit(1)
	}

	c := &compiler{
		translator: translator,
		outDir:     *outDir,
		entry:      *entryPoint,
		defines:    defines,
		forceDebug: *debug,
	}
	if c.outDir == "" {
		c.outDir = cfg.Shaders.OutputDir
	}
	if *stageName != "" {
		stage, err := loaders.ParseStage(*stageName)
		if err != nil {
			core.LogError("%s", err.Error())
			os.Exit(1)
		}
		c.stage = stage
		c.stageSet = true
	}

	input := cfg.Shaders.SourceDir
	if flag.NArg() == 1 {
		input = flag.Arg(0)
	}

	if *watch {
		if err := c.watch(input); err != nil {
			core.LogError("%s", err.Error())
			os.Exit(1)
		}
		return
	}

	failed, err := c.compilePath(input)
	if err != nil {
		core.LogError("%s", err.Error())
		os.Exit(1)
	}
	if failed > 0 {
		core.LogError("%d shader(s) failed to compile", failed)
		os.Exit(1)
	}
}

// compilePath compiles one file, or every shader source under a
// directory. It returns how many sources failed.
func (c *compiler) compilePath(path string) (int, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !st.IsDir() {
		if err := c.compileFile(path); err != nil {
			core.LogError("%s: %s", path, err.Error())
			return 1, nil
		}
		return 0, nil
	}

	failed := 0
	err = filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() || filepath.Ext(walkPath) != ".wgsl" {
			return nil
		}
		if cerr := c.compileFile(walkPath); cerr != nil {
			core.LogError("%s: %s", walkPath, cerr.Error())
			failed++
		}
		return nil
	})
	return failed, err
}

func (c *compiler) compileFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	stage := c.stage
	if !c.stageSet {
		inferred, err := loaders.StageFromPath(path)
		if err != nil {
			return fmt.Errorf("%w (use -stage to override)", err)
		}
		stage = inferred
	}

	out, err := c.translator.Translate(&shaderc.Input{
		Source:     string(raw),
		Stage:      stage,
		EntryPoint: c.entry,
		Defines:    c.defines,
		ForceDebug: c.forceDebug,
	})
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(path), ".wgsl")
	outPath := filepath.Join(c.outDir, base+c.translator.Target().Extension())
	if err := os.MkdirAll(c.outDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, out.Code, 0o644); err != nil {
		return err
	}

	core.LogInfo("compiled %s [%s, %s] -> %s (%d bytes)", path, stage, c.translator.Target(), outPath, len(out.Code))
	logReflection(out.Reflection)
	return nil
}

func logReflection(r shaderc.Reflection) {
	for _, entry := range r.EntryPoints {
		core.LogDebug("  entry point %s (%s)", entry.Name, entry.Stage)
	}
	for _, binding := range r.Bindings {
		core.LogDebug("  binding %s (set=%d, binding=%d)", binding.Name, binding.Set, binding.Binding)
	}
	for _, input := range r.Inputs {
		core.LogDebug("  input %s (location=%d)", input.Name, input.Location)
	}
}

// watch rebuilds everything once, then recompiles each source as the
// filesystem reports writes. Ctrl-C stops the watch.
func (c *compiler) watch(path string) error {
	root := path
	single := ""
	if st, err := os.Stat(path); err != nil {
		return err
	} else if !st.IsDir() {
		root = filepath.Dir(path)
		single = path
	}

	if failed, err := c.compilePath(path); err != nil {
		return err
	} else if failed > 0 {
		core.LogWarn("%d shader(s) failed in the initial build", failed)
	}

	manager, err := assets.NewManager()
	if err != nil {
		return err
	}
	defer manager.Shutdown()
	if err := manager.Startup(root); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		manager.Shutdown()
	}()

	core.LogInfo("watching %s", path)
	for event := range manager.Events() {
		if event.Type != assets.TypeShaderSource {
			continue
		}
		if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
			continue
		}
		if single != "" && event.Path != single {
			continue
		}
		if err := c.compileFile(event.Path); err != nil {
			core.LogError("%s: %s", event.Path, err.Error())
		}
	}
	return nil
}

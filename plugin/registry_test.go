package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netresearch/loadedhandler/handler"
	"github.com/netresearch/loadedhandler/plugin/counting"
	"github.com/netresearch/loadedhandler/test/testutil"
)

func TestBuildWiresRegisteredHandlerType(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("Counting", func() HandlerPlugin { return counting.New() })

	init := &counting.Initializer{
		HandlerSettings: handler.HandlerSettings{HandlerName: "Counting", JobName: "sum"},
		Custom:          counting.Settings{Count: 3},
	}

	h, result, err := Build(handler.JobScriptDescriptor{PackageName: "pkg"}, init, r, &testutil.RecordingLogger{})
	require.NoError(t, err)
	assert.Equal(t, "pkg/Counting/sum", result.FullName)
	assert.Equal(t, result.HandlerID, h.ID())
}

func TestBuildRejectsUnregisteredHandlerName(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	init := &counting.Initializer{HandlerSettings: handler.HandlerSettings{HandlerName: "Missing", JobName: "j"}}

	_, _, err := Build(handler.JobScriptDescriptor{}, init, r, &testutil.RecordingLogger{})
	require.Error(t, err)

	var initErr *handler.InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, handler.ReasonHandlerMissing, initErr.Reason)
}

func TestBuildRejectsNilInitializer(t *testing.T) {
	t.Parallel()

	_, _, err := Build(handler.JobScriptDescriptor{}, nil, NewRegistry(), &testutil.RecordingLogger{})
	require.Error(t, err)
}

func TestLoadDescriptorYAMLRoundTrips(t *testing.T) {
	t.Parallel()

	doc := []byte(`
packageName: pkg
scriptText: "print('hi')"
libraryRefs: ["lib-a", "lib-b"]
workerDeps: ["dep-a"]
packageFolder: /var/lib/loadedhandler/pkg
assemblyFileName: pkg.so
`)

	descriptor, err := LoadDescriptorYAML(doc)
	require.NoError(t, err)
	assert.Equal(t, "pkg", descriptor.PackageName)
	assert.Equal(t, []string{"lib-a", "lib-b"}, descriptor.LibraryRefs)
	assert.Equal(t, "pkg.so", descriptor.AssemblyFileName)
}

func TestLoadDescriptorYAMLRejectsMalformed(t *testing.T) {
	t.Parallel()

	_, err := LoadDescriptorYAML([]byte("packageName: [unterminated"))
	require.Error(t, err)
}

package adb

import (
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"

	device "github.com/inference-gateway/operator/internal/device"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

const sampleDump = `UI hierchary dumped to: /data/local/tmp/operator_view.xml
<?xml version='1.0' encoding='UTF-8' standalone='yes' ?><hierarchy rotation="0"><node index="0" text="" class="android.widget.FrameLayout" package="com.example" content-desc="" clickable="false" long-clickable="false" focusable="false" focused="false" scrollable="false" password="false" selected="false" bounds="[0,0][1080,1920]"><node index="0" text="Sign in" class="android.widget.Button" package="com.example" content-desc="" clickable="true" long-clickable="false" focusable="true" focused="false" scrollable="false" password="false" selected="false" bounds="[100,200][300,260]" /><node index="1" text="" class="android.widget.EditText" package="com.example" content-desc="Email" clickable="true" long-clickable="true" focusable="true" focused="true" scrollable="false" password="false" selected="false" bounds="[100,300][980,380]" /></node></hierarchy>`

type recorder struct {
	mu    sync.Mutex
	calls []string
	reply map[string]string
	fail  string
}

func (r *recorder) run(_ context.Context, _ string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line := strings.Join(args, " ")
	r.calls = append(r.calls, line)
	if r.fail != "" && strings.Contains(line, r.fail) {
		return nil, errors.New("exit status 1")
	}
	for prefix, out := range r.reply {
		if strings.Contains(line, prefix) {
			return []byte(out), nil
		}
	}
	return nil, nil
}

func newTestClient(r *recorder) *Client {
	c := NewClient("adb", "emulator-5554")
	c.run = r.run
	return c
}

func TestParseHierarchy(t *testing.T) {
	root, err := parseHierarchy(sampleDump, nil)
	require.NoError(t, err)
	require.NotNil(t, root)

	assert.Equal(t, image.Rect(0, 0, 1080, 1920), root.Bounds())
	require.Equal(t, 2, root.ChildCount())

	button := root.Child(0)
	assert.Equal(t, "Sign in", button.Text())
	assert.True(t, button.Clickable())
	assert.False(t, button.Editable())

	field := root.Child(1)
	assert.Equal(t, "Email", field.ContentDescription())
	assert.True(t, field.Editable())
	assert.True(t, field.Focused())
	assert.Nil(t, root.Child(5))
}

func TestParseHierarchyMultipleWindows(t *testing.T) {
	raw := `<?xml version='1.0'?><hierarchy><node bounds="[0,0][1080,100]"/><node bounds="[0,100][1080,1920]"/></hierarchy>`
	root, err := parseHierarchy(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, root.ChildCount())
	assert.Equal(t, image.Rect(0, 0, 1080, 1920), root.Bounds())
}

func TestParseHierarchyErrors(t *testing.T) {
	_, err := parseHierarchy("ERROR: null root node returned by UiTestAutomationBridge.", nil)
	assert.Error(t, err)

	root, err := parseHierarchy(`<hierarchy rotation="0"></hierarchy>`, nil)
	require.NoError(t, err)
	assert.Nil(t, root)
}

func TestNodePerform(t *testing.T) {
	r := &recorder{}
	root, err := parseHierarchy(sampleDump, newTestClient(r))
	require.NoError(t, err)

	ctx := context.Background()
	assert.True(t, root.Child(0).Perform(ctx, device.ActionClick, ""))
	assert.True(t, root.Child(1).Perform(ctx, device.ActionSetText, "a b"))
	assert.True(t, root.Child(1).Perform(ctx, device.ActionIMEEnter, ""))

	assert.Equal(t, []string{
		"-s emulator-5554 shell input tap 200 230",
		"-s emulator-5554 shell input tap 540 340",
		"-s emulator-5554 shell input text a%sb",
		"-s emulator-5554 shell input keyevent KEYCODE_ENTER",
	}, r.calls)
}

func TestNodeSetTextReplacesContents(t *testing.T) {
	raw := `<hierarchy><node text="old@mail" class="android.widget.EditText" bounds="[100,300][980,380]"/></hierarchy>`
	r := &recorder{}
	field, err := parseHierarchy(raw, newTestClient(r))
	require.NoError(t, err)

	ctx := context.Background()
	assert.True(t, field.Perform(ctx, device.ActionSetText, "new"))
	assert.Equal(t, []string{
		"-s emulator-5554 shell input tap 540 340",
		"-s emulator-5554 shell input keyevent KEYCODE_MOVE_END" + strings.Repeat(" KEYCODE_DEL", 8),
		"-s emulator-5554 shell input text new",
	}, r.calls)

	r.calls = nil
	assert.True(t, field.Perform(ctx, device.ActionSetText, ""))
	assert.Len(t, r.calls, 2)

	r.calls, r.fail = nil, "KEYCODE_DEL"
	assert.False(t, field.Perform(ctx, device.ActionSetText, "new"))
	assert.Len(t, r.calls, 2)
}

func TestInputMethodCache(t *testing.T) {
	r := &recorder{reply: map[string]string{"default_input_method": adbKeyboardIME + "\n"}}
	d := &Device{client: newTestClient(r)}

	ime := d.InputMethod()
	require.NotNil(t, ime)
	assert.Same(t, ime, d.InputMethod())
	assert.Len(t, r.calls, 1)

	r.fail = "ADB_INPUT_TEXT"
	assert.Error(t, ime.CommitText(context.Background(), "hi"))

	r.fail = ""
	assert.NotSame(t, ime, d.InputMethod())
	assert.Len(t, r.calls, 3)

	r.reply = nil
	d.forgetIME()
	assert.Nil(t, d.InputMethod())
}

func TestParseScreenSize(t *testing.T) {
	w, h, err := parseScreenSize("Physical size: 1080x2340\nOverride size: 720x1560\n")
	require.NoError(t, err)
	assert.Equal(t, 720, w)
	assert.Equal(t, 1560, h)

	_, _, err = parseScreenSize("garbage")
	assert.Error(t, err)
}

func TestParseFocus(t *testing.T) {
	ev, ok := parseFocus("  mCurrentFocus=Window{4c1e0a5 u0 com.android.settings/.Settings}\n")
	require.True(t, ok)
	assert.Equal(t, "com.android.settings", ev.PackageName)
	assert.Equal(t, "com.android.settings.Settings", ev.ClassName)

	_, ok = parseFocus("mCurrentFocus=null")
	assert.False(t, ok)
}

func TestInstalledApplications(t *testing.T) {
	r := &recorder{reply: map[string]string{
		"pm list packages": "package:com.b\npackage:com.a\npackage:com.service\n",
		"query-activities": "com.a/.Main\ncom.b/com.b.Launcher\n",
	}}
	d := &Device{client: newTestClient(r)}

	apps, err := d.InstalledApplications(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 3)
	assert.Equal(t, "com.a", apps[0].PackageName)
	assert.True(t, apps[0].Launchable)
	assert.False(t, apps[2].Launchable)

	found, err := d.Launch(context.Background(), "com.service")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEscapeInputText(t *testing.T) {
	assert.Equal(t, `hello%sworld!`, escapeInputText("hello world!"))
	assert.Equal(t, `\(x\)`, escapeInputText("(x)"))
	assert.Equal(t, `'it'\''s'`, quoteShell("it's"))
}

package main

import (
	"bytes"
	"errors"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/nufs"
)

type runner struct {
	t   *testing.T
	img string
}

func mkRunner(t *testing.T) *runner {
	dir := t.TempDir()
	t.Setenv("NUFS_CONFIG_FILE", filepath.Join(dir, "absent.yaml"))
	return &runner{t: t, img: filepath.Join(dir, "test.img")}
}

func (r *runner) run(stdin string, args ...string) (string, error) {
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = ioutil.Discard
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"nufs"}, args...))
	return out.String(), err
}

func (r *runner) ok(stdin string, args ...string) string {
	out, err := r.run(stdin, args...)
	require.NoError(r.t, err, "nufs %v", args)
	return out
}

func TestPutCat(t *testing.T) {
	r := mkRunner(t)
	r.ok("hello\n", "put", r.img, "/hello.txt")
	assert.Equal(t, "hello\n", r.ok("", "cat", r.img, "/hello.txt"))

	// put replaces the whole file
	r.ok("bye", "put", r.img, "/hello.txt")
	assert.Equal(t, "bye", r.ok("", "cat", r.img, "/hello.txt"))

	src := filepath.Join(t.TempDir(), "src")
	big := bytes.Repeat([]byte("0123456789"), 1000)
	require.NoError(t, ioutil.WriteFile(src, big, 0644))
	r.ok("", "put", r.img, "/big", src)
	assert.Equal(t, string(big), r.ok("", "cat", r.img, "/big"))
}

func TestPutOutOfSpaceKeepsFile(t *testing.T) {
	r := mkRunner(t)
	r.ok("old", "put", r.img, "/keep")
	// 249 data blocks and an index block fill the image
	free := common.BlockCount - common.NRESERVED - 1
	r.ok(strings.Repeat("h", int((free-1)*common.BlockSize)), "put", r.img, "/hog")

	_, err := r.run(strings.Repeat("n", int(2*common.BlockSize)), "put", r.img, "/keep")
	assert.True(t, errors.Is(err, common.ErrOutOfSpace), "err %v", err)
	assert.Equal(t, "old", r.ok("", "cat", r.img, "/keep"))
	r.ok("", "inspect", "--check", r.img)
}

func TestLsMvRm(t *testing.T) {
	r := mkRunner(t)
	r.ok("a", "put", r.img, "/a")
	r.ok("bb", "put", r.img, "/b")
	out := r.ok("", "ls", r.img)
	assert.Equal(t, "5 1 /a\n6 2 /b\n", out)

	_, err := r.run("", "mv", "--no-replace", r.img, "/a", "/b")
	assert.True(t, errors.Is(err, common.ErrAlreadyExists))
	r.ok("", "mv", r.img, "/a", "/b")
	assert.Equal(t, "5 1 /b\n", r.ok("", "ls", r.img))

	r.ok("", "rm", r.img, "/b")
	assert.Equal(t, "", r.ok("", "ls", r.img))
	_, err = r.run("", "rm", r.img, "/b")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestInspect(t *testing.T) {
	r := mkRunner(t)
	r.ok("xyz", "put", r.img, "/f")
	out := r.ok("", "inspect", "--check", r.img)

	var d nufs.Dump
	require.NoError(t, yaml.Unmarshal([]byte(out), &d))
	assert.Equal(t, common.BlockCount, d.Blocks)
	require.Len(t, d.Files, 1)
	assert.Equal(t, "/f", d.Files[0].Name)
	assert.Equal(t, uint64(3), d.Files[0].Size)
	assert.Equal(t, []common.Bnum{5}, d.Files[0].Blocks)
}

func TestMissingArgs(t *testing.T) {
	r := mkRunner(t)
	_, err := r.run("", "cat", r.img)
	assert.Error(t, err)
	_, err = r.run("", "mount")
	assert.Error(t, err)
}

func TestBadImage(t *testing.T) {
	r := mkRunner(t)
	_, err := r.run("", "ls", filepath.Join(t.TempDir(), "no", "such", "dir", "img"))
	assert.True(t, errors.Is(err, common.ErrIo))
}

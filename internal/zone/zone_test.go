package zone

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineFullySpecified(t *testing.T) {
	rec, err := ParseLine("windows.pcpools.fuberlin\tIN\t60\tA\t127.0.0.17")
	require.NoError(t, err)
	assert.Equal(t, "windows.pcpools.fuberlin", rec.Name)
	assert.Equal(t, "127.0.0.17", rec.Value)
	assert.Equal(t, "IN", rec.Class)
	assert.Equal(t, "A", rec.Type)
	assert.Equal(t, 60, rec.TTLSecs)
}

func TestParseLineDefaultsClassAndType(t *testing.T) {
	rec, err := ParseLine("fuberlin 300 192.168.1.1")
	require.NoError(t, err)
	assert.Equal(t, "fuberlin", rec.Name)
	assert.Equal(t, "192.168.1.1", rec.Value)
	assert.Equal(t, 300, rec.TTLSecs)
	assert.Equal(t, defaultClass, rec.Class)
	assert.Equal(t, defaultType, rec.Type)
}

func TestParseLineSingleMiddleTokenIsType(t *testing.T) {
	rec, err := ParseLine("pcpools.fuberlin NS 300 ns1.pcpools.fuberlin")
	require.NoError(t, err)
	assert.Equal(t, "NS", rec.Type)
	assert.Equal(t, defaultClass, rec.Class)
	assert.Equal(t, 300, rec.TTLSecs)
}

func TestParseLineNoMiddleTokensUsesDefaultsNoTTLToken(t *testing.T) {
	rec, err := ParseLine("root 127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, defaultTTL, rec.TTLSecs)
	assert.Equal(t, defaultClass, rec.Class)
	assert.Equal(t, defaultType, rec.Type)
}

func TestParseLineQuotedSegmentIsSingleToken(t *testing.T) {
	rec, err := ParseLine(`fuberlin 300 IN TXT "hello world"`)
	require.NoError(t, err)
	assert.Equal(t, "hello world", rec.Value)
}

func TestParseLineTooFewTokensFails(t *testing.T) {
	_, err := ParseLine("onlyname")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestParseLineEmptyTokensDiscarded(t *testing.T) {
	rec, err := ParseLine("  fuberlin   300   192.168.1.1  ")
	require.NoError(t, err)
	assert.Equal(t, "fuberlin", rec.Name)
	assert.Equal(t, "192.168.1.1", rec.Value)
}

func TestZoneLongestSuffixMatch(t *testing.T) {
	z := New()
	z.Put(Record{Name: "fuberlin", Value: "127.0.0.11", Type: "NS", TTLSecs: 300})
	z.Put(Record{Name: "pcpools.fuberlin", Value: "127.0.0.16", Type: "NS", TTLSecs: 60})

	rec, ok := z.Match("windows.pcpools.fuberlin")
	require.True(t, ok)
	assert.Equal(t, "pcpools.fuberlin", rec.Name)
	assert.Equal(t, 60, rec.TTLSecs)

	rec, ok = z.Match("other.fuberlin")
	require.True(t, ok)
	assert.Equal(t, "fuberlin", rec.Name)

	_, ok = z.Match("example.org")
	assert.False(t, ok)
}

func TestZoneLastWriteWinsOnDuplicateName(t *testing.T) {
	z := New()
	z.Put(Record{Name: "fuberlin", Value: "127.0.0.11"})
	z.Put(Record{Name: "fuberlin", Value: "127.0.0.12"})

	rec, ok := z.Match("fuberlin")
	require.True(t, ok)
	assert.Equal(t, "127.0.0.12", rec.Value)
}

func TestLoadFileLastLineWinsAndParsesAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fuberlin.zone")
	contents := "fuberlin\t300\tNS\t127.0.0.11\n" +
		"pcpools.fuberlin\t60\tNS\t127.0.0.16\n" +
		"fuberlin\t300\tNS\t127.0.0.99\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	z, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, z.Len())

	rec, ok := z.Match("fuberlin")
	require.True(t, ok)
	assert.Equal(t, "127.0.0.99", rec.Value)
}

func TestLoadFileMalformedLineFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.zone")
	require.NoError(t, os.WriteFile(path, []byte("onlyname\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormat)
}

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRegistersExpectedSubcommands(t *testing.T) {
	root := New("test", nil)
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"version", "readers", "info", "listapps", "appdata", "cap"}, names)
}

func TestNewRegistersPersistentFlags(t *testing.T) {
	root := New("test", nil)
	for _, name := range []string{"reader", "pin", "loglevel", "redact", "no-redact"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "missing persistent flag %q", name)
	}
}

func TestCapCommandFlags(t *testing.T) {
	root := New("test", nil)
	for _, c := range root.Commands() {
		if c.Name() != "cap" {
			continue
		}
		assert.NotNil(t, c.Flags().Lookup("challenge"))
		assert.NotNil(t, c.Flags().Lookup("amount"))
		return
	}
	t.Fatal("cap subcommand not found")
}

func TestNoReaderDriverReportsNoReaders(t *testing.T) {
	d := noReaderDriver{}
	readers, err := d.Readers()
	assert.NoError(t, err)
	assert.Empty(t, readers)

	_, err = d.Open(0)
	assert.Error(t, err)
}

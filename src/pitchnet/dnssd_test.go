package pitchnet

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultServiceName_includesHostname(t *testing.T) {
	name := DefaultServiceName()
	assert.True(t, strings.HasPrefix(name, "Tuner"))

	if hostname, err := os.Hostname(); err == nil {
		short, _, _ := strings.Cut(hostname, ".")
		assert.Contains(t, name, short)
	}
}

func TestServiceType_isWellFormed(t *testing.T) {
	assert.True(t, strings.HasSuffix(ServiceType, "._tcp"))
	assert.True(t, strings.HasPrefix(ServiceType, "_"))
}

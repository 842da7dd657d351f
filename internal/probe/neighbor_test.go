package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIPNeigh(t *testing.T) {
	output := `192.168.1.1 dev eth0 lladdr 74:ac:b9:00:00:01 REACHABLE
192.168.1.10 dev eth0 lladdr fc:ec:da:aa:bb:cc STALE
192.168.1.11 dev eth0  FAILED
fe80::1 dev eth0 lladdr 74:ac:b9:00:00:01 router STALE
`
	tests := []struct {
		name   string
		ip     string
		want   string
		wantOK bool
	}{
		{name: "exact match", ip: "192.168.1.1", want: "74:AC:B9:00:00:01", wantOK: true},
		{name: "not a prefix match", ip: "192.168.1.10", want: "FC:EC:DA:AA:BB:CC", wantOK: true},
		{name: "failed entry", ip: "192.168.1.11"},
		{name: "absent", ip: "192.168.1.100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseIPNeigh(output, tt.ip)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProcNetARP(t *testing.T) {
	content := `IP address       HW type     Flags       HW address            Mask     Device
10.0.0.1         0x1         0x2         b8:27:eb:12:34:56     *        eth0
10.0.0.10        0x1         0x0         00:00:00:00:00:00     *        eth0
`
	mac, ok := ParseProcNetARP(content, "10.0.0.1")
	assert.True(t, ok)
	assert.Equal(t, "B8:27:EB:12:34:56", mac)

	_, ok = ParseProcNetARP(content, "10.0.0.10")
	assert.False(t, ok)

	_, ok = ParseProcNetARP(content, "IP")
	assert.False(t, ok)
}

func TestParseDarwinARP(t *testing.T) {
	output := `? (192.168.1.2) at 0:27:22:a:b:c on en0 ifscope [ethernet]
? (192.168.1.20) at (incomplete) on en0 ifscope [ethernet]
`
	mac, ok := ParseDarwinARP(output, "192.168.1.2")
	assert.True(t, ok)
	assert.Equal(t, "0:27:22:A:B:C", mac)

	_, ok = ParseDarwinARP(output, "192.168.1.20")
	assert.False(t, ok)

	_, ok = ParseDarwinARP(output, "192.168.1.200")
	assert.False(t, ok)
}

func TestParseWindowsARP(t *testing.T) {
	output := "\r\nInterface: 192.168.1.5 --- 0xb\r\n" +
		"  Internet Address      Physical Address      Type\r\n" +
		"  192.168.1.1           fc-ec-da-01-02-03     dynamic\r\n" +
		"  192.168.1.12          ff-ff-ff              invalid\r\n" +
		"  192.168.1.255         ff-ff-ff-ff-ff-ff     static\r\n"

	mac, ok := ParseWindowsARP(output, "192.168.1.1")
	assert.True(t, ok)
	assert.Equal(t, "FC:EC:DA:01:02:03", mac)

	_, ok = ParseWindowsARP(output, "192.168.1.12")
	assert.False(t, ok, "short entries are rejected")

	_, ok = ParseWindowsARP(output, "192.168.1.5")
	assert.False(t, ok, "interface header is not an entry")
}

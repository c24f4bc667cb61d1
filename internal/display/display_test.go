package display

import (
	"bufio"
	"bytes"
	"net"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetsetgo/sidekick-setup/internal/config"
)

func TestConsoleDisplayFramesLines(t *testing.T) {
	var buf bytes.Buffer
	d := NewConsoleDisplay(&buf)

	require.NoError(t, d.Show([]string{"Setup Complete!", "ok"}))

	want := "" +
		"+-----------------+\n" +
		"| Setup Complete! |\n" +
		"| ok              |\n" +
		"+-----------------+\n"
	assert.Equal(t, want, buf.String())
}

func TestConsoleDisplayWideRunes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleDisplay(&buf).Show(CompletionLines("日本")))

	want := "" +
		"+-----------------+\n" +
		"| Setup Complete! |\n" +
		"| Hi from 日本    |\n" +
		"+-----------------+\n"
	assert.Equal(t, want, buf.String())

	long := CompletionLines("ロボットくんです")
	buf.Reset()
	require.NoError(t, NewConsoleDisplay(&buf).Show(long))
	rows := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	for _, row := range rows {
		assert.Equal(t, lipgloss.Width(rows[0]), lipgloss.Width(row), row)
	}
}

func TestNetworkDisplaySendsLines(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var lines []string
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		received <- lines
	}()

	addr := ln.Addr().(*net.TCPAddr)
	d := NewNetworkDisplay("127.0.0.1", addr.Port)
	require.NoError(t, d.Show(CompletionLines("Robo")))

	assert.Equal(t, []string{"Setup Complete!", "Hi from Robo"}, <-received)
}

func TestNetworkDisplayUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	err = NewNetworkDisplay("127.0.0.1", port).Show([]string{"x"})
	assert.ErrorContains(t, err, "failed to connect to display")
}

func TestNew(t *testing.T) {
	d, err := New(config.DisplayConfig{Type: "none"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "none", d.Type())

	_, err = New(config.DisplayConfig{Type: "network"}, nil)
	assert.Error(t, err)

	d, err = New(config.DisplayConfig{Type: "network", Address: "10.0.0.2", Port: 9100}, nil)
	require.NoError(t, err)
	assert.Equal(t, "network", d.Type())
}

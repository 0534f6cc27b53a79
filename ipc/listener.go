//
// Copyright 2019-2020 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package ipc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"

	"github.com/Microsoft/go-winio"
	"github.com/sirupsen/logrus"

	"github.com/winoverlay/winoverlay/domain"
)

// pipeName turns a bare socket name into the `\\.\pipe\...` form Windows
// named pipes require.
func pipeName(name string) string {
	return `\\.\pipe\` + name
}

// Listener is C11's lifecycle/message listener: the injector side of the
// agent/injector IPC channel, accepting exactly one connection from the
// agent it just injected and decoding the COBS/CBOR frame stream from it.
type Listener struct {
	ln net.Listener
}

// NewListener starts listening on socketName (the injector derives it
// from the target process's PID, not its own), using go-winio's named-pipe transport —
// the idiomatic local-IPC choice on Windows, sourced from moby-moby's
// dependency tree since the teacher's own ipc package assumes a
// Unix-domain socket that has no Windows equivalent (see DESIGN.md).
func NewListener(socketName string) (*Listener, error) {
	ln, err := winio.ListenPipe(pipeName(socketName), nil)
	if err != nil {
		return nil, fmt.Errorf("ipc: listening on %s: %w", socketName, err)
	}
	return &Listener{ln: ln}, nil
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Accept blocks for the agent's single connection and returns a Stream
// over it. The agent connects exactly once per injection; a second
// connection attempt is rejected by the caller owning the Listener.
func (l *Listener) Accept(ctx context.Context) (*Stream, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := l.ln.Accept()
		ch <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("ipc: accept: %w", r.err)
		}
		return newStream(r.conn), nil
	}
}

// Dial connects to the injector's named pipe from inside the target
// process — the agent side of the handshake Listener.Accept completes on
// the injector side (§4.10 step 3).
func Dial(ctx context.Context, socketName string) (*Stream, error) {
	conn, err := winio.DialPipeContext(ctx, pipeName(socketName))
	if err != nil {
		return nil, fmt.Errorf("ipc: dialing %s: %w", socketName, err)
	}
	return newStream(conn), nil
}

// Stream wraps one accepted connection, reading and reassembling COBS
// frames into domain.Message values.
type Stream struct {
	conn net.Conn
	r    *bufio.Reader
}

func newStream(conn net.Conn) *Stream {
	return &Stream{conn: conn, r: bufio.NewReader(conn)}
}

// Close closes the underlying connection.
func (s *Stream) Close() error {
	return s.conn.Close()
}

// Send frames and writes one message.
func (s *Stream) Send(msg domain.Message) error {
	frame, err := Encode(msg)
	if err != nil {
		return err
	}
	if _, err := s.conn.Write(frame); err != nil {
		return fmt.Errorf("ipc: write: %w", err)
	}
	return nil
}

// Recv blocks for the next complete frame and decodes it. It returns
// io.EOF when the peer has closed the connection cleanly.
func (s *Stream) Recv() (domain.Message, error) {
	raw, err := s.r.ReadBytes(frameDelimiter)
	if err != nil {
		if err == io.EOF {
			return domain.Message{}, io.EOF
		}
		return domain.Message{}, fmt.Errorf("ipc: read: %w", err)
	}

	msg, err := Decode(raw[:len(raw)-1])
	if err != nil {
		logrus.WithError(err).Warn("ipc: dropping malformed frame")
		return domain.Message{}, err
	}
	return msg, nil
}

package reaktor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/moby/term"
	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/httpstream"
	"k8s.io/apimachinery/pkg/util/httpstream/spdy"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
	utilexec "k8s.io/client-go/util/exec"
)

const (
	execPingPeriod = 5 * time.Second
	// how long a cancelled exec waits for the stream to wind down
	execCloseGrace = 5 * time.Second
)

type ExecOptions struct {
	Namespace string
	Pod       string
	Container string // empty means the pod's only (or default) container
	Command   []string
	Streams   genericclioptions.IOStreams
	TTY       bool
}

// Exec runs a command in a running container and streams its stdio. A
// non-zero exit status is returned as an ExitError.
//
// Cancelling ctx closes the connection, which ends the remote command's
// session. Once Exec returns nothing more is written to opts.Streams.
func (k *Reaktor) Exec(ctx context.Context, opts ExecOptions) error {
	if len(opts.Command) == 0 {
		return errors.New("exec: command is required")
	}
	if k.restConfig == nil {
		return errors.New("exec: client has no REST config")
	}

	ref := ObjectRef{Kind: "Pod", Namespace: opts.Namespace, Name: opts.Pod}
	req := k.clientset.CoreV1().RESTClient().
		Post().
		Resource("pods").
		Namespace(opts.Namespace).
		Name(opts.Pod).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: opts.Container,
			Command:   opts.Command,
			Stdin:     opts.Streams.In != nil,
			Stdout:    opts.Streams.Out != nil,
			// a tty merges stderr into stdout
			Stderr: opts.Streams.ErrOut != nil && !opts.TTY,
			TTY:    opts.TTY,
		}, scheme.ParameterCodec)

	transport, upgrader, err := newExecTransport(ctx, k.restConfig)
	if err != nil {
		return errors.Wrap(err, "exec: failed to create transport")
	}
	executor, err := remotecommand.NewSPDYExecutorForTransports(transport, upgrader, "POST", req.URL())
	if err != nil {
		return errors.Wrap(err, "exec: failed to create executor")
	}

	streamOpts := remotecommand.StreamOptions{Stdin: opts.Streams.In, Tty: opts.TTY}
	var writers []*detachableWriter
	if opts.Streams.Out != nil {
		w := &detachableWriter{w: opts.Streams.Out}
		writers = append(writers, w)
		streamOpts.Stdout = w
	}
	if opts.Streams.ErrOut != nil && !opts.TTY {
		w := &detachableWriter{w: opts.Streams.ErrOut}
		writers = append(writers, w)
		streamOpts.Stderr = w
	}

	if opts.TTY {
		if fd, isTerminal := term.GetFdInfo(opts.Streams.In); isTerminal {
			state, err := term.SetRawTerminal(fd)
			if err == nil {
				defer func() { _ = term.RestoreTerminal(fd, state) }()
			}
		}
	}

	done := make(chan error, 1)
	go func() { done <- executor.Stream(streamOpts) }()

	select {
	case <-ctx.Done():
		upgrader.close()
		select {
		case <-done:
		case <-time.After(execCloseGrace):
		}
		for _, w := range writers {
			w.detach()
		}
		return errors.WithStack(ctx.Err())
	case err := <-done:
		if err != nil && ctx.Err() != nil {
			return errors.WithStack(ctx.Err())
		}
		var exitErr utilexec.ExitError
		if errors.As(err, &exitErr) {
			return errors.WithStack(&ExitError{Ref: ref, Command: opts.Command, Code: exitErr.ExitStatus()})
		}
		if err != nil {
			return wrapAPIError("exec", ref, err)
		}
		return nil
	}
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Ref     ObjectRef
	Command []string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q in %s exited with status %d", e.Command, e.Ref, e.Code)
}

// execTransport is client-go's SPDY round tripper plus a handle on the
// connection it upgrades, so that cancelling ctx can close it. The executor in
// client-go v0.25 has no way to cancel a stream once it started.
type execTransport struct {
	*spdy.SpdyRoundTripper
	ctx context.Context

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

func newExecTransport(ctx context.Context, config *rest.Config) (http.RoundTripper, *execTransport, error) {
	tlsConfig, err := rest.TLSConfigFor(config)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	proxy := http.ProxyFromEnvironment
	if config.Proxy != nil {
		proxy = config.Proxy
	}

	t := &execTransport{
		SpdyRoundTripper: spdy.NewRoundTripperWithConfig(spdy.RoundTripperConfig{
			TLS:        tlsConfig,
			Proxier:    proxy,
			PingPeriod: execPingPeriod,
		}),
		ctx: ctx,
	}
	wrapper, err := rest.HTTPWrappersForConfig(config, t)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	return wrapper, t, nil
}

// RoundTrip sends the upgrade request on a connection dialed with the exec
// context and remembers the connection.
func (t *execTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(t.ctx)
	req.Header.Add(httpstream.HeaderConnection, httpstream.HeaderUpgrade)
	req.Header.Add(httpstream.HeaderUpgrade, spdy.HeaderSpdy31)

	conn, err := t.Dial(req)
	if err != nil {
		return nil, err
	}
	if !t.track(conn) {
		return nil, t.ctx.Err()
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	if err != nil {
		t.close()
		return nil, err
	}
	return resp, nil
}

// NewConnection starts the SPDY session on the tracked connection.
func (t *execTransport) NewConnection(resp *http.Response) (httpstream.Connection, error) {
	if !isSpdyUpgrade(resp) {
		// builds the error from the server's response
		defer t.close()
		return t.SpdyRoundTripper.NewConnection(resp)
	}

	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil, errors.New("exec: connection is closed")
	}
	return spdy.NewClientConnectionWithPings(conn, execPingPeriod)
}

func (t *execTransport) track(conn net.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		_ = conn.Close()
		return false
	}
	t.conn = conn
	return true
}

func (t *execTransport) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.conn != nil {
		_ = t.conn.Close()
	}
}

func isSpdyUpgrade(resp *http.Response) bool {
	connection := strings.ToLower(resp.Header.Get(httpstream.HeaderConnection))
	upgrade := strings.ToLower(resp.Header.Get(httpstream.HeaderUpgrade))
	return resp.StatusCode == http.StatusSwitchingProtocols &&
		strings.Contains(connection, strings.ToLower(httpstream.HeaderUpgrade)) &&
		strings.Contains(upgrade, strings.ToLower(spdy.HeaderSpdy31))
}

// detachableWriter forwards to w until detached. A cancelled exec detaches
// its writers so a stream still draining can't write into the caller's
// buffers after Exec returned.
type detachableWriter struct {
	mu       sync.Mutex
	w        io.Writer
	detached bool
}

func (d *detachableWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.detached {
		return len(p), nil
	}
	return d.w.Write(p)
}

func (d *detachableWriter) detach() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detached = true
}

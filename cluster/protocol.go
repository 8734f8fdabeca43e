package cluster

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrProtocol wraps any malformed-frame condition on the builder job
// wire protocol: length mismatch, truncated stream, anything that isn't
// a well-formed request/response. The connection is aborted and the
// caller retries against a different builder.
var ErrProtocol = errors.New("cluster: protocol error")

// maxFrameLen bounds any single length-prefixed field so a corrupt or
// malicious peer can't make a reader allocate gigabytes from one
// four-byte length. Preprocessed translation units are large but this
// ceiling (256MiB) comfortably exceeds any real one.
const maxFrameLen = 256 << 20

// JobRequest is one builder-job invocation: which toolchain to use, the
// normalized argument string, and the preprocessed source bytes.
type JobRequest struct {
	ToolchainID string
	Args        string
	Source      []byte
}

// JobResponse carries back the compiler's exit status, captured
// stdout/stderr, and the requested output files as sized blobs, in the
// order the caller asked for them.
type JobResponse struct {
	Status  uint32
	Stdout  []byte
	Stderr  []byte
	Outputs [][]byte
}

func writeFrame(w io.Writer, p []byte) error {
	if len(p) > maxFrameLen {
		return ErrProtocol
	}
	var lbuf [4]byte
	binary.LittleEndian.PutUint32(lbuf[:], uint32(len(p)))
	if _, err := w.Write(lbuf[:]); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	_, err := w.Write(p)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var lbuf [4]byte
	if _, err := io.ReadFull(r, lbuf[:]); err != nil {
		return nil, errors.Join(ErrProtocol, err)
	}
	n := binary.LittleEndian.Uint32(lbuf[:])
	if n > maxFrameLen {
		return nil, ErrProtocol
	}
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Join(ErrProtocol, err)
	}
	return buf, nil
}

// WriteJobRequest frames one request per the wire format: u32-prefixed
// toolchain id, args, and preprocessed source, in that order.
func WriteJobRequest(w io.Writer, req JobRequest) error {
	if err := writeFrame(w, []byte(req.ToolchainID)); err != nil {
		return err
	}
	if err := writeFrame(w, []byte(req.Args)); err != nil {
		return err
	}
	return writeFrame(w, req.Source)
}

func ReadJobRequest(r io.Reader) (JobRequest, error) {
	toolchainID, err := readFrame(r)
	if err != nil {
		return JobRequest{}, err
	}
	args, err := readFrame(r)
	if err != nil {
		return JobRequest{}, err
	}
	source, err := readFrame(r)
	if err != nil {
		return JobRequest{}, err
	}
	return JobRequest{ToolchainID: string(toolchainID), Args: string(args), Source: source}, nil
}

// WriteJobResponse frames one response: u32 status, stdout, stderr, then
// u16 output count followed by each output as a u32-prefixed blob.
func WriteJobResponse(w io.Writer, resp JobResponse) error {
	var status [4]byte
	binary.LittleEndian.PutUint32(status[:], resp.Status)
	if _, err := w.Write(status[:]); err != nil {
		return err
	}
	if err := writeFrame(w, resp.Stdout); err != nil {
		return err
	}
	if err := writeFrame(w, resp.Stderr); err != nil {
		return err
	}
	if len(resp.Outputs) > 0xFFFF {
		return ErrProtocol
	}
	var n [2]byte
	binary.LittleEndian.PutUint16(n[:], uint16(len(resp.Outputs)))
	if _, err := w.Write(n[:]); err != nil {
		return err
	}
	for _, out := range resp.Outputs {
		if err := writeFrame(w, out); err != nil {
			return err
		}
	}
	return nil
}

func ReadJobResponse(r io.Reader) (JobResponse, error) {
	var status [4]byte
	if _, err := io.ReadFull(r, status[:]); err != nil {
		return JobResponse{}, errors.Join(ErrProtocol, err)
	}
	stdout, err := readFrame(r)
	if err != nil {
		return JobResponse{}, err
	}
	stderr, err := readFrame(r)
	if err != nil {
		return JobResponse{}, err
	}
	var nbuf [2]byte
	if _, err := io.ReadFull(r, nbuf[:]); err != nil {
		return JobResponse{}, errors.Join(ErrProtocol, err)
	}
	n := binary.LittleEndian.Uint16(nbuf[:])
	outputs := make([][]byte, 0, n)
	for i := uint16(0); i < n; i++ {
		blob, err := readFrame(r)
		if err != nil {
			return JobResponse{}, err
		}
		outputs = append(outputs, blob)
	}
	return JobResponse{
		Status:  binary.LittleEndian.Uint32(status[:]),
		Stdout:  stdout,
		Stderr:  stderr,
		Outputs: outputs,
	}, nil
}

// Package pcapfile keeps a log of modem frames in the classic pcap
// format so they can be inspected with standard packet tools.
package pcapfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"Aethermodem/pkg/frame"
)

// LinkType is DLT_USER0, the private-use link type frames are stored
// under.
const LinkType = layers.LinkType(147)

// snapLen covers the largest frame a sender can build, not only those a
// receiver accepts.
const snapLen = frame.HeaderSize + math.MaxUint16 + frame.TrailerSize

var ErrLinkType = errors.New("pcap file is not a frame capture")

// Writer appends frames to a pcap stream.
type Writer struct {
	mu sync.Mutex
	w  *pcapgo.Writer
}

// NewWriter writes the file header to w.
func NewWriter(w io.Writer) (*Writer, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, LinkType); err != nil {
		return nil, err
	}
	return &Writer{w: pw}, nil
}

// WriteFrame stores the serialized frame stamped with ts.
func (w *Writer) WriteFrame(f frame.Frame, ts time.Time) error {
	data := f.Bytes()
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(data),
		Length:        len(data),
	}, data)
}

// File is a pcap file on disk that frames are appended to across runs.
type File struct {
	Path string

	file *os.File
	*Writer
}

func OpenFile(path string) (f *File, err error) {
	f = &File{Path: path}
	err = f.Open()
	return
}

func (f *File) Open() error {
	file, err := os.OpenFile(f.Path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}

	if info.Size() == 0 {
		f.Writer, err = NewWriter(file)
		if err != nil {
			file.Close()
			return err
		}
	} else {
		r, err := pcapgo.NewReader(file)
		if err != nil {
			file.Close()
			return fmt.Errorf("%s: %w", f.Path, err)
		}
		if r.LinkType() != LinkType {
			file.Close()
			return fmt.Errorf("%w: %s has link type %v", ErrLinkType, f.Path, r.LinkType())
		}
		// The header is already there; only packet records follow.
		f.Writer = &Writer{w: pcapgo.NewWriter(file)}
	}
	f.file = file
	return nil
}

func (f *File) Close() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// Record is one frame read back from a capture.
type Record struct {
	Timestamp time.Time
	Layer     *frame.Layer
	Err       error // set when the stored bytes do not parse as a frame
}

// ReadAll decodes every frame stored in r.
func ReadAll(r io.Reader) ([]Record, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, err
	}
	if pr.LinkType() != LinkType {
		return nil, fmt.Errorf("%w: link type %v", ErrLinkType, pr.LinkType())
	}

	var records []Record
	source := gopacket.NewPacketSource(pr, frame.LayerTypeAcousticFrame)
	for packet := range source.Packets() {
		rec := Record{Timestamp: packet.Metadata().Timestamp}
		if l, ok := packet.Layer(frame.LayerTypeAcousticFrame).(*frame.Layer); ok {
			rec.Layer = l
		} else if el := packet.ErrorLayer(); el != nil {
			rec.Err = el.Error()
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadFile decodes every frame stored at path.
func ReadFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadAll(file)
}

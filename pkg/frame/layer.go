package frame

import (
	"encoding/binary"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var LayerTypeAcousticFrame = gopacket.RegisterLayerType(12120, gopacket.LayerTypeMetadata{
	Name:    "AcousticFrame",
	Decoder: gopacket.DecodeFunc(decodeAcousticFrame),
})

// Layer exposes a frame to gopacket. Contents holds the length header,
// Payload the message bytes; the CRC trailer is kept in CRC.
type Layer struct {
	layers.BaseLayer
	Length uint16
	CRC    uint16
}

func (l *Layer) LayerType() gopacket.LayerType { return LayerTypeAcousticFrame }

func (l *Layer) CanDecode() gopacket.LayerClass { return LayerTypeAcousticFrame }

func (l *Layer) NextLayerType() gopacket.LayerType { return gopacket.LayerTypePayload }

func (l *Layer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	f, err := Parse(data)
	if err != nil {
		if len(data) < HeaderSize+TrailerSize {
			df.SetTruncated()
		}
		return err
	}
	l.Length = uint16(f.Length())
	l.CRC = f.CRC()
	l.Contents = data[:HeaderSize]
	l.Payload = data[HeaderSize : HeaderSize+f.Length()]
	return nil
}

func (l *Layer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	payload := b.Bytes()
	if opts.FixLengths {
		l.Length = uint16(len(payload))
	}
	if opts.ComputeChecksums {
		l.CRC = checksum(l.Length, payload)
	}

	header, err := b.PrependBytes(HeaderSize)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(header, l.Length)

	trailer, err := b.AppendBytes(TrailerSize)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(trailer, l.CRC)
	return nil
}

func decodeAcousticFrame(data []byte, p gopacket.PacketBuilder) error {
	l := &Layer{}
	if err := l.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(l)
	return p.NextDecoder(gopacket.LayerTypePayload)
}

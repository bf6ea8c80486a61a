package depth

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"go4.org/media/heif"
	"go4.org/media/heif/bmff"
)

// DepthAuxType identifies the depth auxiliary image of a HEIF photo.
const DepthAuxType = "urn:mpeg:hevc:2015:auxid:2"

// HEIFInfo is the item structure read from a HEIF container's meta box.
type HEIFInfo struct {
	PrimaryID uint32
	ItemTypes map[uint32]string
	Aux       []AuxItem
}

// AuxItem is an auxiliary image item and the item it belongs to.
type AuxItem struct {
	ID   uint32
	Type string
	Of   uint32
}

// DepthItem returns the depth auxiliary item of the primary image.
func (h *HEIFInfo) DepthItem() (AuxItem, bool) {
	for _, a := range h.Aux {
		if a.Type == DepthAuxType && a.Of == h.PrimaryID {
			return a, true
		}
	}
	return AuxItem{}, false
}

var heifBrands = [][]byte{
	[]byte("heic"), []byte("heix"), []byte("hevc"), []byte("hevx"),
	[]byte("heim"), []byte("heis"), []byte("mif1"), []byte("msf1"),
}

// looksLikeHEIF checks the ftyp box for a HEIF brand.
func looksLikeHEIF(head []byte) bool {
	if len(head) < 12 || string(head[4:8]) != "ftyp" {
		return false
	}
	for _, b := range heifBrands {
		if bytes.Equal(head[8:12], b) {
			return true
		}
	}
	return false
}

// ReadHEIFInfo reads the item structure of a HEIF file without decoding any
// image data. It finds the primary item and every auxiliary item with its
// auxC type and auxl reference.
func ReadHEIFInfo(data []byte) (*HEIFInfo, error) {
	meta, err := readMeta(data)
	if err != nil {
		return nil, err
	}
	f := heif.Open(bytes.NewReader(data))
	primary, err := f.PrimaryItem()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHEIF, err)
	}

	info := &HEIFInfo{PrimaryID: primary.ID, ItemTypes: make(map[uint32]string)}
	auxOf := make(map[uint32]uint32)
	for _, b := range meta.Children {
		switch {
		case b.Type().EqualString("iinf"):
			p, err := b.Parse()
			if err != nil {
				return nil, fmt.Errorf("%w: iinf: %v", ErrMalformedHEIF, err)
			}
			for _, e := range p.(*bmff.ItemInfoBox).ItemInfos {
				info.ItemTypes[uint32(e.ItemID)] = e.ItemType
			}
		case b.Type().EqualString("iref"):
			if err := readAuxRefs(b, auxOf); err != nil {
				return nil, err
			}
		}
	}

	for id := range info.ItemTypes {
		item, err := f.ItemByID(id)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrMalformedHEIF, id, err)
		}
		for _, p := range item.Properties {
			if !p.Type().EqualString("auxC") {
				continue
			}
			auxType, err := readAuxType(p)
			if err != nil {
				return nil, err
			}
			info.Aux = append(info.Aux, AuxItem{ID: id, Type: auxType, Of: auxOf[id]})
		}
	}
	sort.Slice(info.Aux, func(i, j int) bool { return info.Aux[i].ID < info.Aux[j].ID })
	return info, nil
}

// readMeta reads the leading ftyp and meta boxes.
func readMeta(data []byte) (*bmff.MetaBox, error) {
	r := bmff.NewReader(bytes.NewReader(data))
	ftyp, err := r.ReadAndParseBox(bmff.TypeFtyp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHEIF, err)
	}
	meta, err := r.ReadAndParseBox(bmff.TypeMeta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHEIF, err)
	}
	if ftyp.Size()+meta.Size() > int64(len(data)) {
		return nil, fmt.Errorf("%w: meta box size %d exceeds file", ErrMalformedHEIF, meta.Size())
	}
	return meta.(*bmff.MetaBox), nil
}

// readAuxRefs collects the auxl references of an iref box: aux item ID ->
// master item ID. bmff frames the reference boxes but has no iref parser.
func readAuxRefs(iref bmff.Box, auxOf map[uint32]uint32) error {
	body, err := io.ReadAll(iref.Body())
	if err != nil {
		return fmt.Errorf("%w: iref: %v", ErrMalformedHEIF, err)
	}
	if len(body) < 4 {
		return fmt.Errorf("%w: truncated iref", ErrMalformedHEIF)
	}
	wide := body[0] != 0

	refs := bmff.NewReader(bytes.NewReader(body[4:]))
	for {
		ref, err := refs.ReadBox()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: iref: %v", ErrMalformedHEIF, err)
		}
		if !ref.Type().EqualString("auxl") {
			continue
		}
		b, err := io.ReadAll(ref.Body())
		if err != nil {
			return fmt.Errorf("%w: auxl: %v", ErrMalformedHEIF, err)
		}
		from, b, ok := itemID(b, wide)
		if !ok || len(b) < 2 {
			return fmt.Errorf("%w: truncated auxl", ErrMalformedHEIF)
		}
		n := binary.BigEndian.Uint16(b)
		b = b[2:]
		for i := 0; i < int(n); i++ {
			var to uint32
			if to, b, ok = itemID(b, wide); !ok {
				return fmt.Errorf("%w: truncated auxl", ErrMalformedHEIF)
			}
			auxOf[from] = to
		}
	}
}

// itemID reads a 16-bit item ID, or a 32-bit one from version 1 boxes.
func itemID(b []byte, wide bool) (uint32, []byte, bool) {
	if wide {
		if len(b) < 4 {
			return 0, b, false
		}
		return binary.BigEndian.Uint32(b), b[4:], true
	}
	if len(b) < 2 {
		return 0, b, false
	}
	return uint32(binary.BigEndian.Uint16(b)), b[2:], true
}

// readAuxType returns the NUL-terminated type URN of an auxC property.
func readAuxType(auxC bmff.Box) (string, error) {
	body, err := io.ReadAll(auxC.Body())
	if err != nil {
		return "", fmt.Errorf("%w: auxC: %v", ErrMalformedHEIF, err)
	}
	if len(body) < 4 {
		return "", fmt.Errorf("%w: truncated auxC", ErrMalformedHEIF)
	}
	urn, _, _ := bytes.Cut(body[4:], []byte{0})
	return string(urn), nil
}

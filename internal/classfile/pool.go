// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/DataDog/weaver/internal/binio"
)

// Tag identifies the kind of a constant pool entry.
type Tag uint8

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

var (
	// ErrPoolOverflow is returned when adding an entry would grow the constant
	// pool past 65535 slots.
	ErrPoolOverflow = errors.New("constant pool is full")
	// ErrBadConstant is returned when an index does not designate an entry of
	// the expected kind.
	ErrBadConstant = errors.New("bad constant pool reference")
)

// Constant is a raw constant pool entry: its tag and the bytes that follow it
// (for TagUtf8, including the length prefix).
type Constant struct {
	Tag  Tag
	Data []byte
}

// Pool is a class's constant pool. Index 0 and the slot following each long
// or double entry hold a zero Constant.
type Pool struct {
	entries []Constant
	// index maps the encoded form of every entry to its position; built lazily
	// on the first addition.
	index map[string]uint16
}

// infoSize returns the size of the data following a tag, given the bytes at
// the start of that data. Utf8 entries are variable-length.
func infoSize(tag Tag, r *binio.Reader) (int, error) {
	switch tag {
	case TagUtf8:
		return -1, nil
	case TagClass, TagString, TagMethodType, TagModule, TagPackage:
		return 2, nil
	case TagMethodHandle:
		return 3, nil
	case TagInteger, TagFloat, TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
		return 4, nil
	case TagLong, TagDouble:
		return 8, nil
	default:
		return 0, fmt.Errorf("unknown constant pool tag %d at offset %d", tag, r.Offset()-1)
	}
}

func readPool(r *binio.Reader) (*Pool, error) {
	count := int(r.U2())
	if count == 0 {
		return nil, errors.New("constant pool count is zero")
	}
	p := &Pool{entries: make([]Constant, count)}
	for i := 1; i < count; i++ {
		tag := Tag(r.U1())
		size, err := infoSize(tag, r)
		if err != nil {
			return nil, err
		}
		var data []byte
		if size < 0 {
			length := r.U2()
			data = make([]byte, 2, 2+int(length))
			binary.BigEndian.PutUint16(data, length)
			data = append(data, r.Bytes(int(length))...)
		} else {
			data = append([]byte(nil), r.Bytes(size)...)
		}
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("constant %d: %w", i, err)
		}
		p.entries[i] = Constant{Tag: tag, Data: data}
		if tag == TagLong || tag == TagDouble {
			i++
		}
	}
	return p, nil
}

func (p *Pool) write(w *binio.Writer) {
	w.U2(uint16(len(p.entries)))
	for _, c := range p.entries {
		if c.Tag == 0 {
			continue
		}
		w.U1(uint8(c.Tag))
		w.Write(c.Data)
	}
}

// Len returns the constant pool count, as written in the class file.
func (p *Pool) Len() int {
	return len(p.entries)
}

// At returns the entry at index.
func (p *Pool) At(index uint16) (Constant, error) {
	if index == 0 || int(index) >= len(p.entries) || p.entries[index].Tag == 0 {
		return Constant{}, fmt.Errorf("%w: index %d out of range", ErrBadConstant, index)
	}
	return p.entries[index], nil
}

func (p *Pool) expect(index uint16, tags ...Tag) (Constant, error) {
	c, err := p.At(index)
	if err != nil {
		return c, err
	}
	for _, t := range tags {
		if c.Tag == t {
			return c, nil
		}
	}
	return c, fmt.Errorf("%w: index %d has tag %d, want %v", ErrBadConstant, index, c.Tag, tags)
}

func u2(b []byte, at int) uint16 {
	return binary.BigEndian.Uint16(b[at:])
}

// Utf8 returns the string held by the Utf8 entry at index.
func (p *Pool) Utf8(index uint16) (string, error) {
	c, err := p.expect(index, TagUtf8)
	if err != nil {
		return "", err
	}
	return decodeMUTF8(c.Data[2:])
}

// ClassName returns the internal name designated by the Class entry at index.
func (p *Pool) ClassName(index uint16) (string, error) {
	c, err := p.expect(index, TagClass)
	if err != nil {
		return "", err
	}
	return p.Utf8(u2(c.Data, 0))
}

// NameAndType returns the name and descriptor of the NameAndType entry at
// index.
func (p *Pool) NameAndType(index uint16) (name, desc string, err error) {
	c, err := p.expect(index, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = p.Utf8(u2(c.Data, 0)); err != nil {
		return "", "", err
	}
	desc, err = p.Utf8(u2(c.Data, 2))
	return name, desc, err
}

// MemberRef resolves a Fieldref, Methodref or InterfaceMethodref entry.
func (p *Pool) MemberRef(index uint16) (owner, name, desc string, err error) {
	c, err := p.expect(index, TagFieldref, TagMethodref, TagInterfaceMethodref)
	if err != nil {
		return "", "", "", err
	}
	if owner, err = p.ClassName(u2(c.Data, 0)); err != nil {
		return "", "", "", err
	}
	name, desc, err = p.NameAndType(u2(c.Data, 2))
	return owner, name, desc, err
}

// Integer returns the value of the Integer entry at index.
func (p *Pool) Integer(index uint16) (int32, error) {
	c, err := p.expect(index, TagInteger)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(c.Data)), nil
}

func (p *Pool) add(tag Tag, data []byte) (uint16, error) {
	if p.index == nil {
		p.index = make(map[string]uint16, len(p.entries))
		for i, c := range p.entries {
			if c.Tag == 0 {
				continue
			}
			key := string(rune(c.Tag)) + string(c.Data)
			if _, dup := p.index[key]; !dup {
				p.index[key] = uint16(i)
			}
		}
	}
	key := string(rune(tag)) + string(data)
	if i, ok := p.index[key]; ok {
		return i, nil
	}
	slots := 1
	if tag == TagLong || tag == TagDouble {
		slots = 2
	}
	if len(p.entries)+slots > math.MaxUint16 {
		return 0, ErrPoolOverflow
	}
	i := uint16(len(p.entries))
	p.entries = append(p.entries, Constant{Tag: tag, Data: data})
	if slots == 2 {
		p.entries = append(p.entries, Constant{})
	}
	p.index[key] = i
	return i, nil
}

// AddUtf8 returns the index of a Utf8 entry holding s, adding one if needed.
func (p *Pool) AddUtf8(s string) (uint16, error) {
	enc := encodeMUTF8(s)
	if len(enc) > math.MaxUint16 {
		return 0, fmt.Errorf("string of %d bytes does not fit a Utf8 constant", len(enc))
	}
	data := make([]byte, 2, 2+len(enc))
	binary.BigEndian.PutUint16(data, uint16(len(enc)))
	return p.add(TagUtf8, append(data, enc...))
}

func (p *Pool) addRef(tag Tag, a, b uint16) (uint16, error) {
	data := make([]byte, 0, 4)
	data = binary.BigEndian.AppendUint16(data, a)
	if tag != TagClass && tag != TagString {
		data = binary.BigEndian.AppendUint16(data, b)
	}
	return p.add(tag, data)
}

// AddClass returns the index of a Class entry for the internal name.
func (p *Pool) AddClass(name string) (uint16, error) {
	utf, err := p.AddUtf8(name)
	if err != nil {
		return 0, err
	}
	return p.addRef(TagClass, utf, 0)
}

// AddString returns the index of a String entry for s.
func (p *Pool) AddString(s string) (uint16, error) {
	utf, err := p.AddUtf8(s)
	if err != nil {
		return 0, err
	}
	return p.addRef(TagString, utf, 0)
}

// AddNameAndType returns the index of a NameAndType entry.
func (p *Pool) AddNameAndType(name, desc string) (uint16, error) {
	n, err := p.AddUtf8(name)
	if err != nil {
		return 0, err
	}
	d, err := p.AddUtf8(desc)
	if err != nil {
		return 0, err
	}
	return p.addRef(TagNameAndType, n, d)
}

func (p *Pool) addMember(tag Tag, owner, name, desc string) (uint16, error) {
	class, err := p.AddClass(owner)
	if err != nil {
		return 0, err
	}
	nat, err := p.AddNameAndType(name, desc)
	if err != nil {
		return 0, err
	}
	return p.addRef(tag, class, nat)
}

// AddMethodref returns the index of a Methodref entry.
func (p *Pool) AddMethodref(owner, name, desc string) (uint16, error) {
	return p.addMember(TagMethodref, owner, name, desc)
}

// AddInterfaceMethodref returns the index of an InterfaceMethodref entry.
func (p *Pool) AddInterfaceMethodref(owner, name, desc string) (uint16, error) {
	return p.addMember(TagInterfaceMethodref, owner, name, desc)
}

// AddFieldref returns the index of a Fieldref entry.
func (p *Pool) AddFieldref(owner, name, desc string) (uint16, error) {
	return p.addMember(TagFieldref, owner, name, desc)
}

// AddInteger returns the index of an Integer entry holding v.
func (p *Pool) AddInteger(v int32) (uint16, error) {
	return p.add(TagInteger, binary.BigEndian.AppendUint32(nil, uint32(v)))
}

func (p *Pool) clone() *Pool {
	c := &Pool{entries: make([]Constant, len(p.entries))}
	for i, e := range p.entries {
		c.entries[i] = Constant{Tag: e.Tag, Data: append([]byte(nil), e.Data...)}
	}
	return c
}

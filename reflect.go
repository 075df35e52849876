// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ethsim

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// Updater is the interface that custom components built using reflection must implement.
// See MakePart.
//
type Updater interface {
	Update(*Circuit)
}

const (
	tagIn = iota
	tagOut
	tagSlave
	tagMaster
	tagReset
)

type field struct {
	name string // field name
	port string // port name
	tag  int
	bus  int // bus width, 0 for single pins or links
}

func parseFields(typ reflect.Type) []field {
	var fs []field
	n := typ.NumField()
	for i := 0; i < n; i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hw")
		if !ok {
			continue
		}
		fd := field{name: f.Name, port: strings.ToLower(f.Name)}
		tv := strings.Split(tag, ",")
		if len(tv) > 1 && tv[1] != "" {
			fd.port = tv[1]
		}
		switch tv[0] {
		case "in":
			fd.tag = tagIn
		case "out":
			fd.tag = tagOut
		case "slave":
			fd.tag = tagSlave
		case "master":
			fd.tag = tagMaster
		case "reset":
			fd.tag = tagReset
		default:
			panic(errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name()))
		}
		ft := f.Type
		if k := ft.Kind(); k == reflect.Array && ft.Elem().Kind() == reflect.Int && fd.tag != tagReset {
			fd.bus = ft.Len()
		} else if k != reflect.Int {
			panic(errors.Errorf("unsupported type %q for field %q in %q", k, f.Name, typ.Name()))
		}
		fs = append(fs, fd)
	}
	return fs
}

// MakePart wraps an Updater into a custom component.
// Ports are identified by field tags.
//
// The field tag must be `hw:"in"`, `hw:"out"`, `hw:"slave"` or `hw:"master"`
// to identify input pins, output pins, consumed stream links and driven stream
// links. A field tagged `hw:"reset"` receives the circuit reset pin and is not
// a port. By default, the port name is the field name in lowercase. A specific
// name can be forced by adding it in the tag: `hw:"in,pin_name"`.
//
// Port fields must be of type int. Buses and link arrays must be arrays of int.
//
// t is used as a prototype: untagged fields of each mounted part are copied
// from t, which allows configuration values to be passed to the part. t may be
// a nil pointer.
//
func MakePart(t Updater) *PartSpec {
	typ := reflect.TypeOf(t)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if k := typ.Kind(); k != reflect.Struct {
		panic(errors.Errorf("unsupported type %q for %q", k, typ.Name()))
	}

	sp := &PartSpec{
		Name: typ.Name(),
	}
	fs := parseFields(typ)
	for _, f := range fs {
		var names []string
		if f.bus > 0 {
			for i := 0; i < f.bus; i++ {
				names = append(names, BusPinName(f.port, i))
			}
		} else {
			names = []string{f.port}
		}
		switch f.tag {
		case tagIn:
			sp.Inputs = append(sp.Inputs, names...)
		case tagOut:
			sp.Outputs = append(sp.Outputs, names...)
		case tagSlave:
			sp.Slaves = append(sp.Slaves, names...)
		case tagMaster:
			sp.Masters = append(sp.Masters, names...)
		}
	}

	var proto reflect.Value
	if v := reflect.ValueOf(t); v.Kind() == reflect.Ptr && !v.IsNil() {
		proto = v.Elem()
	}
	sp.Mount = mountPart(typ, fs, proto)
	return sp
}

func mountPart(typ reflect.Type, fs []field, proto reflect.Value) MountFn {
	return func(s *Socket) []Component {
		v := reflect.New(typ)
		e := v.Elem()
		if proto.IsValid() {
			e.Set(proto)
		}
		for _, f := range fs {
			fv := e.FieldByName(f.name)
			if f.tag == tagReset {
				fv.SetInt(int64(s.Reset()))
				continue
			}
			get := s.Pin
			if f.tag == tagSlave || f.tag == tagMaster {
				get = s.Link
			}
			if f.bus > 0 {
				for i := 0; i < f.bus; i++ {
					fv.Index(i).SetInt(int64(get(BusPinName(f.port, i))))
				}
			} else {
				fv.SetInt(int64(get(f.port)))
			}
		}

		comp := v.Interface().(Updater)
		return []Component{comp.Update}
	}
}

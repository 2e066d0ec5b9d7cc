package model

import "testing"

func TestValue_Text(t *testing.T) {
	cases := []struct {
		in   Value
		want string
	}{
		{Null(), ""},
		{String("hello"), "hello"},
		{Number(99.5), "99.5"},
		{Number(100), "100"},
		{Bool(true), "true"},
	}
	for _, tc := range cases {
		if got := tc.in.Text(); got != tc.want {
			t.Errorf("Text(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValue_Float(t *testing.T) {
	if f, ok := Number(3.25).Float(); !ok || f != 3.25 {
		t.Errorf("Number: %v %v", f, ok)
	}
	if f, ok := String(" 42.5 ").Float(); !ok || f != 42.5 {
		t.Errorf("padded string: %v %v", f, ok)
	}
	if _, ok := String("abc").Float(); ok {
		t.Error("non-numeric string parsed")
	}
	if _, ok := Bool(true).Float(); ok {
		t.Error("bool parsed as float")
	}
	if _, ok := Null().Float(); ok {
		t.Error("null parsed as float")
	}
}

func TestValue_EqualIsStrict(t *testing.T) {
	if String("5").Equal(Number(5)) {
		t.Error("cross-kind equality must be false")
	}
	if !Number(5).Equal(Number(5)) {
		t.Error("same number unequal")
	}
	if !Null().Equal(Value{}) {
		t.Error("zero Value must equal Null")
	}
}

func TestValue_AnyRoundTrip(t *testing.T) {
	for _, v := range []Value{Null(), String("x"), Number(1.5), Bool(false)} {
		if got := FromAny(v.Any()); !got.Equal(v) {
			t.Errorf("FromAny(Any(%v)) = %v", v, got)
		}
	}
}

func TestFromAny_IntegersAndFallback(t *testing.T) {
	if v := FromAny(int64(7)); v.Kind() != KindNumber {
		t.Errorf("int64 kind = %v", v.Kind())
	}
	if v := FromAny([]string{"a"}); v.Kind() != KindString {
		t.Errorf("unsupported type kind = %v", v.Kind())
	}
}

func TestField_AliasedSpellings(t *testing.T) {
	r := &Row{Fields: map[string]Value{"messageId": String("MSG-1")}}

	for _, name := range []string{"messageId", "MESSAGE_ID", "message_id", "MessageId"} {
		v, ok := r.Field(name)
		if !ok || v.Text() != "MSG-1" {
			t.Errorf("Field(%q) = %q, %v", name, v.Text(), ok)
		}
	}
	if _, ok := r.Field("ticker"); ok {
		t.Error("missing field reported present")
	}
	if got := r.FieldOrEmpty("ticker"); got.Text() != "" || got.Kind() != KindString {
		t.Errorf("FieldOrEmpty fallback = %v", got)
	}
}

func TestSetField_ReusesAliasedKey(t *testing.T) {
	r := &Row{Fields: map[string]Value{"messageId": String("old")}}
	r.SetField("MESSAGE_ID", String("new"))

	if len(r.Fields) != 1 {
		t.Fatalf("row carries %d spellings of one column: %v", len(r.Fields), r.Fields)
	}
	if got := r.Fields["messageId"].Text(); got != "new" {
		t.Errorf("messageId = %q", got)
	}
}

func TestSetField_CreatesMap(t *testing.T) {
	var r Row
	r.SetField("bid", Number(1))
	if v, ok := r.Field("bid"); !ok || v.Kind() != KindNumber {
		t.Errorf("Field after SetField on zero row: %v %v", v, ok)
	}
}

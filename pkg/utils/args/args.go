package args

import "strings"

type Adapter[T interface{ String() string }] struct {
	value  T
	parser func(string) (T, error)
	isSet  bool
}

func (i *Adapter[T]) String() string {
	if i.isSet {
		return i.value.String()
	}
	return ""
}

func (i *Adapter[T]) Set(s string) error {
	v, err := i.parser(s)
	if err != nil {
		return err
	}
	i.isSet = true
	i.value = v
	return nil
}

func (i Adapter[T]) Value() T {
	return i.value
}

func (i Adapter[T]) IsSet() bool {
	return i.isSet
}

func Parser[T interface{ String() string }](parser func(string) (T, error)) *Adapter[T] {
	return &Adapter[T]{parser: parser}
}

// List is an Adapter for flags that may repeat. Each occurrence appends
// one value.
type List[T interface{ String() string }] struct {
	values []T
	parser func(string) (T, error)
}

func (l *List[T]) String() string {
	words := make([]string, len(l.values))
	for i, v := range l.values {
		words[i] = v.String()
	}
	return strings.Join(words, ",")
}

func (l *List[T]) Set(s string) error {
	v, err := l.parser(s)
	if err != nil {
		return err
	}
	l.values = append(l.values, v)
	return nil
}

func (l *List[T]) Values() []T {
	return l.values
}

func (l *List[T]) IsSet() bool {
	return len(l.values) != 0
}

func ListParser[T interface{ String() string }](parser func(string) (T, error)) *List[T] {
	return &List[T]{parser: parser}
}

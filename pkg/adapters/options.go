package adapters

// Option は各コラボレーターの任意設定です。
type Option func(*options)

type options struct {
	recorder FallbackRecorder
}

// WithFallbackRecorder は代替結果への切り替えを記録する先を指定します。
func WithFallbackRecorder(r FallbackRecorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

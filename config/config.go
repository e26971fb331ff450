package config

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"
)

var (
	KeyVerbose               = "verbose"
	KeyMinifyHTML            = "minifyHtml"
	KeyMinifyCSS             = "minifyCss"
	KeyMinifyJS              = "minifyJs"
	KeyMinifyInlineCSS       = "minifyInlineCss"
	KeyMinifyInlineJS        = "minifyInlineJs"
	KeyMinifyExternals       = "minifyExternals"
	KeyFollowExternals       = "followExternals"
	KeyIgnoreExternals       = "ignoreExternals"
	KeyStripIgnoredExternals = "stripIgnoredExternals"
	KeyFollowImports         = "followImports"
	KeyIgnoreImports         = "ignoreImports"
	KeyStripIgnoredImports   = "stripIgnoredImports"
	KeyEncoding              = "encoding"
	KeyMaxDepth              = "maxDepth"
)

// Options is the immutable option set of a pipeline. It is passed by value
// through every processing call.
type Options struct {
	Verbose               bool     `mapstructure:"verbose"`
	MinifyHTML            bool     `mapstructure:"minifyHtml"`
	MinifyCSS             bool     `mapstructure:"minifyCss"`
	MinifyJS              bool     `mapstructure:"minifyJs"`
	MinifyInlineCSS       bool     `mapstructure:"minifyInlineCss"`
	MinifyInlineJS        bool     `mapstructure:"minifyInlineJs"`
	MinifyExternals       bool     `mapstructure:"minifyExternals"`
	FollowExternals       bool     `mapstructure:"followExternals"`
	IgnoreExternals       PathList `mapstructure:"ignoreExternals"`
	StripIgnoredExternals bool     `mapstructure:"stripIgnoredExternals"`
	FollowImports         bool     `mapstructure:"followImports"`
	IgnoreImports         PathList `mapstructure:"ignoreImports"`
	StripIgnoredImports   bool     `mapstructure:"stripIgnoredImports"`

	// Encoding is a WHATWG encoding label used for every read and write.
	Encoding string `mapstructure:"encoding"`

	// MaxDepth bounds recursive dispatch of imports and externals.
	// Zero means unbounded.
	MaxDepth int `mapstructure:"maxDepth"`
}

func Default() Options {
	return Options{
		Verbose:               false,
		MinifyHTML:            true,
		MinifyCSS:             true,
		MinifyJS:              true,
		MinifyInlineCSS:       true,
		MinifyInlineJS:        true,
		MinifyExternals:       true,
		FollowExternals:       true,
		IgnoreExternals:       PathList{},
		StripIgnoredExternals: true,
		FollowImports:         true,
		IgnoreImports:         PathList{},
		StripIgnoredImports:   true,
		Encoding:              DefaultEncoding(),
		MaxDepth:              0,
	}
}

func DefaultEncoding() string {
	return "utf-8"
}

// Merge overlays overrides onto the defaults. Keys that name a known option
// replace the default; unknown keys are ignored.
func Merge(overrides map[string]any) (Options, error) {
	opts := Default()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return Options{}, errors.Errorf("create option decoder: %w", err)
	}

	if err := decoder.Decode(overrides); err != nil {
		return Options{}, errors.Errorf("decode options: %w", err)
	}

	if opts.Encoding == "" {
		opts.Encoding = DefaultEncoding()
	}

	if opts.MaxDepth < 0 {
		return Options{}, errors.Errorf("invalid %s %d", KeyMaxDepth, opts.MaxDepth)
	}

	return opts, nil
}

// Load merges every setting known to v onto the defaults.
func Load(v *viper.Viper) (Options, error) {
	return Merge(v.AllSettings())
}

// ForExternals returns the options a followed external is processed with.
// Disabling MinifyExternals turns off CSS and JS minification for them.
func (o Options) ForExternals() Options {
	child := o
	child.MinifyCSS = o.MinifyCSS && o.MinifyExternals
	child.MinifyJS = o.MinifyJS && o.MinifyExternals
	return child
}

// PathList is a list of absolute paths or doublestar patterns.
type PathList []string

// Contains reports whether path equals an entry or matches an entry used as
// a doublestar pattern. Entries that are no valid pattern, such as a path
// with an unbalanced '[', only match exactly.
func (l PathList) Contains(path string) bool {
	path = filepath.Clean(path)
	for _, entry := range l {
		if filepath.Clean(entry) == path {
			return true
		}

		if ok, err := doublestar.PathMatch(entry, path); err == nil && ok {
			return true
		}
	}

	return false
}

// Abs makes every relative entry absolute with respect to the working
// directory.
func (l PathList) Abs() (PathList, error) {
	result := make(PathList, 0, len(l))
	for _, entry := range l {
		abs, err := filepath.Abs(entry)
		if err != nil {
			return nil, errors.Errorf("absolute path of '%s': %w", entry, err)
		}
		result = append(result, abs)
	}

	return result, nil
}

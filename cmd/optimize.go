package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bgraf/optimizehtml/cmd/building"
	"github.com/bgraf/optimizehtml/config"
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize [PATH...]",
	Short: "Minify HTML documents together with their imports, stylesheets and scripts",
	Long: `Each path is a file, a directory (searched recursively) or a doublestar
pattern. Files are rewritten in place, one top-level file at a time.`,
	Args: cobra.MinimumNArgs(1),
	RunE: building.RunOptimizeCmd,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)

	defaults := config.Default()
	flags := optimizeCmd.Flags()

	boolFlags := []struct {
		key   string
		name  string
		value bool
		usage string
	}{
		{config.KeyVerbose, "verbose", defaults.Verbose, "Narrate every stage and resource"},
		{config.KeyMinifyHTML, "minify-html", defaults.MinifyHTML, "Minify HTML markup"},
		{config.KeyMinifyCSS, "minify-css", defaults.MinifyCSS, "Minify standalone CSS files"},
		{config.KeyMinifyJS, "minify-js", defaults.MinifyJS, "Minify standalone JS files"},
		{config.KeyMinifyInlineCSS, "minify-inline-css", defaults.MinifyInlineCSS, "Minify <style> blocks"},
		{config.KeyMinifyInlineJS, "minify-inline-js", defaults.MinifyInlineJS, "Minify <script> blocks"},
		{config.KeyMinifyExternals, "minify-externals", defaults.MinifyExternals, "Minify followed stylesheets and scripts"},
		{config.KeyFollowExternals, "follow-externals", defaults.FollowExternals, "Follow external stylesheets and scripts"},
		{config.KeyStripIgnoredExternals, "strip-ignored-externals", defaults.StripIgnoredExternals, "Remove ignored externals from the document"},
		{config.KeyFollowImports, "follow-imports", defaults.FollowImports, "Follow HTML imports"},
		{config.KeyStripIgnoredImports, "strip-ignored-imports", defaults.StripIgnoredImports, "Remove ignored imports from the document"},
	}

	for _, f := range boolFlags {
		flags.Bool(f.name, f.value, f.usage)
		mustBind(f.key, optimizeCmd, f.name)
	}

	flags.StringSlice("ignore-import", nil, "Import path or pattern never followed (repeatable)")
	mustBind(config.KeyIgnoreImports, optimizeCmd, "ignore-import")

	flags.StringSlice("ignore-external", nil, "External path or pattern never followed (repeatable)")
	mustBind(config.KeyIgnoreExternals, optimizeCmd, "ignore-external")

	flags.String("encoding", defaults.Encoding, "Encoding of all processed files")
	mustBind(config.KeyEncoding, optimizeCmd, "encoding")

	flags.Int("max-depth", defaults.MaxDepth, "Maximum reference depth, 0 for unbounded")
	mustBind(config.KeyMaxDepth, optimizeCmd, "max-depth")
}

func mustBind(key string, cmd *cobra.Command, flag string) {
	if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(err)
	}
}

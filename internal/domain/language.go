package domain

type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangCpp        Language = "cpp"
	LangC          Language = "c"
	LangJava       Language = "java"
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangRuby       Language = "ruby"
	LangHTML       Language = "html"
)

// DefaultExtension is used for languages missing from the table.
const DefaultExtension = "txt"

var extensions = map[Language]string{
	LangJavaScript: "js",
	LangTypeScript: "ts",
	LangPython:     "py",
	LangCpp:        "cpp",
	LangC:          "c",
	LangJava:       "java",
	LangGo:         "go",
	LangRust:       "rs",
	LangRuby:       "rb",
	LangHTML:       "html",
}

func (l Language) Extension() string {
	if ext, ok := extensions[l]; ok {
		return ext
	}
	return DefaultExtension
}

// MainFile is the file name the execution provider receives.
func (l Language) MainFile() string {
	return "main." + l.Extension()
}

package python

var keywords = map[string]bool{
	"and": true, "as": true, "assert": true, "async": true, "await": true,
	"break": true, "class": true, "continue": true, "def": true, "del": true,
	"elif": true, "else": true, "except": true, "finally": true, "for": true,
	"from": true, "global": true, "if": true, "import": true, "in": true,
	"is": true, "lambda": true, "nonlocal": true, "not": true, "or": true,
	"pass": true, "raise": true, "return": true, "try": true, "while": true,
	"with": true, "yield": true,
	"true": true, "false": true, "none": true,
}

var builtinClasses = map[string]bool{
	"bool": true, "bytearray": true, "bytes": true, "classmethod": true,
	"complex": true, "dict": true, "enumerate": true, "filter": true,
	"float": true, "frozenset": true, "int": true, "list": true, "map": true,
	"memoryview": true, "object": true, "property": true, "range": true,
	"reversed": true, "set": true, "slice": true, "staticmethod": true,
	"str": true, "super": true, "tuple": true, "type": true, "zip": true,
	"BaseException": true, "Exception": true, "ValueError": true,
	"TypeError": true, "KeyError": true, "IndexError": true,
	"AttributeError": true, "RuntimeError": true, "StopIteration": true,
	"NotImplementedError": true, "OSError": true, "ImportError": true,
}

var builtinFunctions = map[string]bool{
	"abs": true, "aiter": true, "all": true, "anext": true, "any": true,
	"ascii": true, "bin": true, "breakpoint": true, "callable": true,
	"chr": true, "compile": true, "delattr": true, "dir": true, "divmod": true,
	"eval": true, "exec": true, "format": true, "getattr": true,
	"globals": true, "hasattr": true, "hash": true, "help": true, "hex": true,
	"id": true, "input": true, "isinstance": true, "issubclass": true,
	"iter": true, "len": true, "locals": true, "max": true, "min": true,
	"next": true, "oct": true, "open": true, "ord": true, "pow": true,
	"print": true, "repr": true, "round": true, "setattr": true,
	"sorted": true, "sum": true, "vars": true, "__import__": true,
}

var builtinSignatures = map[string][]string{
	"abs":        {"x"},
	"enumerate":  {"iterable", "start=0"},
	"getattr":    {"object", "name", "default"},
	"hasattr":    {"obj", "name"},
	"isinstance": {"obj", "class_or_tuple"},
	"issubclass": {"cls", "class_or_tuple"},
	"len":        {"obj"},
	"max":        {"iterable", "*", "key=None", "default"},
	"min":        {"iterable", "*", "key=None", "default"},
	"open":       {"file", "mode='r'", "buffering=-1", "encoding=None", "errors=None", "newline=None", "closefd=True", "opener=None"},
	"print":      {"*values", "sep=' '", "end='\\n'", "file=None", "flush=False"},
	"range":      {"start", "stop", "step=1"},
	"round":      {"number", "ndigits=None"},
	"setattr":    {"obj", "name", "value"},
	"sorted":     {"iterable", "key=None", "reverse=False"},
	"sum":        {"iterable", "start=0"},
	"zip":        {"*iterables", "strict=False"},
}

// builtinDescription describes a builtin name, or reports false.
func builtinDescription(name string) (string, bool) {
	switch {
	case builtinClasses[name]:
		return "class " + name, true
	case builtinFunctions[name]:
		return "def " + name, true
	}
	return "", false
}

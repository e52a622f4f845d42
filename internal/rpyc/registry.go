package rpyc

import "strings"

// NodeKind is the closed set of node shapes the graph walker understands.
// Everything reconstructable maps to exactly one kind; anything outside the
// registry is rejected before instantiation.
type NodeKind int

const (
	// KindOpaque reconstructs structurally but carries no text of its own.
	// The walker still descends into its block attribute when present.
	KindOpaque NodeKind = iota

	KindSay
	KindTranslateSay
	KindMenu
	KindLabel
	KindInit
	KindPython
	KindPyCode
	KindPyExpr
	KindScreen
	KindTranslate
	KindTranslateString
	KindTranslateBlock
	KindUserStatement
	KindIf
	KindWhile
	KindDefine
	KindDefault

	KindSLScreen
	KindSLDisplayable
	KindSLIf
	KindSLFor
	KindSLBlock
	KindSLUse
	KindSLPython
	KindSLDefault

	// Container classes decode straight into the plain container values.
	KindList
	KindDict
	KindSet
	KindFrozenSet
	KindStr
)

// classMap is the immutable allow-list of fully qualified globals. Entries
// cover every node class the statement graphs of supported engine versions
// serialize, including legacy module aliases.
var classMap = map[string]NodeKind{
	"renpy.ast.Say":          KindSay,
	"renpy.ast.TranslateSay": KindTranslateSay,
	"renpy.ast.Menu":         KindMenu,
	"renpy.ast.Label":        KindLabel,
	"renpy.ast.Init":         KindInit,
	"renpy.ast.Python":       KindPython,
	"renpy.ast.EarlyPython":  KindPython,
	"renpy.ast.PyCode":       KindPyCode,
	"renpy.ast.Screen":       KindScreen,

	"renpy.ast.Translate":           KindTranslate,
	"renpy.ast.TranslateString":     KindTranslateString,
	"renpy.ast.TranslateBlock":      KindTranslateBlock,
	"renpy.ast.TranslateEarlyBlock": KindTranslateBlock,
	"renpy.ast.TranslatePython":     KindTranslateBlock,
	"renpy.ast.EndTranslate":        KindOpaque,

	"renpy.ast.UserStatement":     KindUserStatement,
	"renpy.ast.PostUserStatement": KindOpaque,
	"renpy.ast.If":                KindIf,
	"renpy.ast.While":             KindWhile,
	"renpy.ast.Define":            KindDefine,
	"renpy.ast.Default":           KindDefault,

	"renpy.ast.Image":     KindOpaque,
	"renpy.ast.Show":      KindOpaque,
	"renpy.ast.Scene":     KindOpaque,
	"renpy.ast.Hide":      KindOpaque,
	"renpy.ast.With":      KindOpaque,
	"renpy.ast.Call":      KindOpaque,
	"renpy.ast.Jump":      KindOpaque,
	"renpy.ast.Return":    KindOpaque,
	"renpy.ast.Pass":      KindOpaque,
	"renpy.ast.Transform": KindOpaque,
	"renpy.ast.Style":     KindOpaque,
	"renpy.ast.Testcase":  KindOpaque,
	"renpy.ast.Camera":    KindOpaque,
	"renpy.ast.ShowLayer": KindOpaque,
	"renpy.ast.RPY":       KindOpaque,
	"renpy.ast.Node":      KindOpaque,

	// Expression wrappers decode to their string payload.
	"renpy.ast.PyExpr":        KindPyExpr,
	"renpy.astsupport.PyExpr": KindPyExpr,

	"renpy.ast.ArgumentInfo":        KindOpaque,
	"renpy.ast.ParameterInfo":       KindOpaque,
	"renpy.parameter.ArgumentInfo":  KindOpaque,
	"renpy.parameter.ParameterInfo": KindOpaque,
	"renpy.parameter.Parameter":     KindOpaque,
	"renpy.parameter.Signature":     KindOpaque,

	"renpy.sl2.slast.SLScreen":       KindSLScreen,
	"renpy.sl2.slast.SLDisplayable":  KindSLDisplayable,
	"renpy.sl2.slast.SLIf":           KindSLIf,
	"renpy.sl2.slast.SLShowIf":       KindSLIf,
	"renpy.sl2.slast.SLFor":          KindSLFor,
	"renpy.sl2.slast.SLBlock":        KindSLBlock,
	"renpy.sl2.slast.SLUse":          KindSLUse,
	"renpy.sl2.slast.SLPython":       KindSLPython,
	"renpy.sl2.slast.SLDefault":      KindSLDefault,
	"renpy.sl2.slast.SLPass":         KindOpaque,
	"renpy.sl2.slast.SLBreak":        KindOpaque,
	"renpy.sl2.slast.SLContinue":     KindOpaque,
	"renpy.sl2.slast.SLTransclude":   KindOpaque,
	"renpy.sl2.slast.SLNull":         KindOpaque,
	"renpy.sl2.slast.SLUseTransform": KindOpaque,

	"renpy.revertable.RevertableList":   KindList,
	"renpy.revertable.RevertableDict":   KindDict,
	"renpy.revertable.RevertableSet":    KindSet,
	"renpy.revertable.RevertableObject": KindOpaque,
	"renpy.python.RevertableList":       KindList,
	"renpy.python.RevertableDict":       KindDict,
	"renpy.python.RevertableSet":        KindSet,
	"renpy.python.RevertableObject":     KindOpaque,

	"renpy.object.Sentinel": KindOpaque,
	"renpy.object.Object":   KindOpaque,
	"renpy.cslots.Object":   KindOpaque,

	"builtins.set":            KindSet,
	"builtins.frozenset":      KindFrozenSet,
	"builtins.dict":           KindDict,
	"builtins.list":           KindList,
	"builtins.tuple":          KindOpaque,
	"builtins.str":            KindStr,
	"builtins.object":         KindOpaque,
	"__builtin__.set":         KindSet,
	"__builtin__.frozenset":   KindFrozenSet,
	"__builtin__.dict":        KindDict,
	"__builtin__.list":        KindList,
	"__builtin__.str":         KindStr,
	"__builtin__.unicode":     KindStr,
	"__builtin__.object":      KindOpaque,
	"collections.OrderedDict": KindDict,
	"collections.defaultdict": KindDict,
}

// lookupClass resolves a serialized global reference. Engine and game-store
// modules outside the map reconstruct as opaque nodes so newer engine
// versions still read; everything else is a hard security failure.
func lookupClass(module, name string) (NodeKind, bool) {
	if k, ok := classMap[module+"."+name]; ok {
		return k, true
	}
	if module == "store" || strings.HasPrefix(module, "store.") ||
		strings.HasPrefix(module, "renpy.") {
		return KindOpaque, true
	}
	return 0, false
}

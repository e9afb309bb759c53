
// Package fuzztests houses Go fuzz harnesses for the text-facing front of
// brackets: the expression parser that reads case snippets and the scenario
// decoder that reads TOML files. The goal is to guard against panics, hangs
// and broken spans on arbitrary inputs.
//
// Назначение: прогонять произвольные байты через syntax.ParseExprText и
// scenario.Decode, проверять инварианты спанов через testkit.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.

package fuzztests

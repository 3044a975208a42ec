package common

// OberonVersion is the current compiler version as a string.
const OberonVersion string = "0.3.0"

// ProjectFileName is the name for project files.
const ProjectFileName string = "oberon.toml"

// SourceFileExt is the file extension for an Oberon source file.
const SourceFileExt string = ".Mod"

// SymbolFileExt is the file extension for a symbol file.
const SymbolFileExt string = ".smb"

// IRFileExt is the file extension for emitted LLVM IR.
const IRFileExt string = ".ll"

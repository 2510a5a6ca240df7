// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package bytecode

// JVM opcodes, named after their mnemonics.
const (
	Nop             Opcode = 0x00
	AconstNull      Opcode = 0x01
	IconstM1        Opcode = 0x02
	Iconst0         Opcode = 0x03
	Iconst1         Opcode = 0x04
	Iconst2         Opcode = 0x05
	Iconst3         Opcode = 0x06
	Iconst4         Opcode = 0x07
	Iconst5         Opcode = 0x08
	Lconst0         Opcode = 0x09
	Lconst1         Opcode = 0x0a
	Fconst0         Opcode = 0x0b
	Fconst1         Opcode = 0x0c
	Fconst2         Opcode = 0x0d
	Dconst0         Opcode = 0x0e
	Dconst1         Opcode = 0x0f
	Bipush          Opcode = 0x10
	Sipush          Opcode = 0x11
	Ldc             Opcode = 0x12
	LdcW            Opcode = 0x13
	Ldc2W           Opcode = 0x14
	Iload           Opcode = 0x15
	Lload           Opcode = 0x16
	Fload           Opcode = 0x17
	Dload           Opcode = 0x18
	Aload           Opcode = 0x19
	Iload0          Opcode = 0x1a
	Iload1          Opcode = 0x1b
	Iload2          Opcode = 0x1c
	Iload3          Opcode = 0x1d
	Lload0          Opcode = 0x1e
	Lload1          Opcode = 0x1f
	Lload2          Opcode = 0x20
	Lload3          Opcode = 0x21
	Fload0          Opcode = 0x22
	Fload1          Opcode = 0x23
	Fload2          Opcode = 0x24
	Fload3          Opcode = 0x25
	Dload0          Opcode = 0x26
	Dload1          Opcode = 0x27
	Dload2          Opcode = 0x28
	Dload3          Opcode = 0x29
	Aload0          Opcode = 0x2a
	Aload1          Opcode = 0x2b
	Aload2          Opcode = 0x2c
	Aload3          Opcode = 0x2d
	Iaload          Opcode = 0x2e
	Laload          Opcode = 0x2f
	Faload          Opcode = 0x30
	Daload          Opcode = 0x31
	Aaload          Opcode = 0x32
	Baload          Opcode = 0x33
	Caload          Opcode = 0x34
	Saload          Opcode = 0x35
	Istore          Opcode = 0x36
	Lstore          Opcode = 0x37
	Fstore          Opcode = 0x38
	Dstore          Opcode = 0x39
	Astore          Opcode = 0x3a
	Istore0         Opcode = 0x3b
	Istore1         Opcode = 0x3c
	Istore2         Opcode = 0x3d
	Istore3         Opcode = 0x3e
	Lstore0         Opcode = 0x3f
	Lstore1         Opcode = 0x40
	Lstore2         Opcode = 0x41
	Lstore3         Opcode = 0x42
	Fstore0         Opcode = 0x43
	Fstore1         Opcode = 0x44
	Fstore2         Opcode = 0x45
	Fstore3         Opcode = 0x46
	Dstore0         Opcode = 0x47
	Dstore1         Opcode = 0x48
	Dstore2         Opcode = 0x49
	Dstore3         Opcode = 0x4a
	Astore0         Opcode = 0x4b
	Astore1         Opcode = 0x4c
	Astore2         Opcode = 0x4d
	Astore3         Opcode = 0x4e
	Iastore         Opcode = 0x4f
	Lastore         Opcode = 0x50
	Fastore         Opcode = 0x51
	Dastore         Opcode = 0x52
	Aastore         Opcode = 0x53
	Bastore         Opcode = 0x54
	Castore         Opcode = 0x55
	Sastore         Opcode = 0x56
	Pop             Opcode = 0x57
	Pop2            Opcode = 0x58
	Dup             Opcode = 0x59
	DupX1           Opcode = 0x5a
	DupX2           Opcode = 0x5b
	Dup2            Opcode = 0x5c
	Dup2X1          Opcode = 0x5d
	Dup2X2          Opcode = 0x5e
	Swap            Opcode = 0x5f
	Iadd            Opcode = 0x60
	Ladd            Opcode = 0x61
	Fadd            Opcode = 0x62
	Dadd            Opcode = 0x63
	Isub            Opcode = 0x64
	Lsub            Opcode = 0x65
	Fsub            Opcode = 0x66
	Dsub            Opcode = 0x67
	Imul            Opcode = 0x68
	Lmul            Opcode = 0x69
	Fmul            Opcode = 0x6a
	Dmul            Opcode = 0x6b
	Idiv            Opcode = 0x6c
	Ldiv            Opcode = 0x6d
	Fdiv            Opcode = 0x6e
	Ddiv            Opcode = 0x6f
	Irem            Opcode = 0x70
	Lrem            Opcode = 0x71
	Frem            Opcode = 0x72
	Drem            Opcode = 0x73
	Ineg            Opcode = 0x74
	Lneg            Opcode = 0x75
	Fneg            Opcode = 0x76
	Dneg            Opcode = 0x77
	Ishl            Opcode = 0x78
	Lshl            Opcode = 0x79
	Ishr            Opcode = 0x7a
	Lshr            Opcode = 0x7b
	Iushr           Opcode = 0x7c
	Lushr           Opcode = 0x7d
	Iand            Opcode = 0x7e
	Land            Opcode = 0x7f
	Ior             Opcode = 0x80
	Lor             Opcode = 0x81
	Ixor            Opcode = 0x82
	Lxor            Opcode = 0x83
	Iinc            Opcode = 0x84
	I2l             Opcode = 0x85
	I2f             Opcode = 0x86
	I2d             Opcode = 0x87
	L2i             Opcode = 0x88
	L2f             Opcode = 0x89
	L2d             Opcode = 0x8a
	F2i             Opcode = 0x8b
	F2l             Opcode = 0x8c
	F2d             Opcode = 0x8d
	D2i             Opcode = 0x8e
	D2l             Opcode = 0x8f
	D2f             Opcode = 0x90
	I2b             Opcode = 0x91
	I2c             Opcode = 0x92
	I2s             Opcode = 0x93
	Lcmp            Opcode = 0x94
	Fcmpl           Opcode = 0x95
	Fcmpg           Opcode = 0x96
	Dcmpl           Opcode = 0x97
	Dcmpg           Opcode = 0x98
	Ifeq            Opcode = 0x99
	Ifne            Opcode = 0x9a
	Iflt            Opcode = 0x9b
	Ifge            Opcode = 0x9c
	Ifgt            Opcode = 0x9d
	Ifle            Opcode = 0x9e
	IfIcmpeq        Opcode = 0x9f
	IfIcmpne        Opcode = 0xa0
	IfIcmplt        Opcode = 0xa1
	IfIcmpge        Opcode = 0xa2
	IfIcmpgt        Opcode = 0xa3
	IfIcmple        Opcode = 0xa4
	IfAcmpeq        Opcode = 0xa5
	IfAcmpne        Opcode = 0xa6
	Goto            Opcode = 0xa7
	Jsr             Opcode = 0xa8
	Ret             Opcode = 0xa9
	Tableswitch     Opcode = 0xaa
	Lookupswitch    Opcode = 0xab
	Ireturn         Opcode = 0xac
	Lreturn         Opcode = 0xad
	Freturn         Opcode = 0xae
	Dreturn         Opcode = 0xaf
	Areturn         Opcode = 0xb0
	Return          Opcode = 0xb1
	Getstatic       Opcode = 0xb2
	Putstatic       Opcode = 0xb3
	Getfield        Opcode = 0xb4
	Putfield        Opcode = 0xb5
	Invokevirtual   Opcode = 0xb6
	Invokespecial   Opcode = 0xb7
	Invokestatic    Opcode = 0xb8
	Invokeinterface Opcode = 0xb9
	Invokedynamic   Opcode = 0xba
	New             Opcode = 0xbb
	Newarray        Opcode = 0xbc
	Anewarray       Opcode = 0xbd
	Arraylength     Opcode = 0xbe
	Athrow          Opcode = 0xbf
	Checkcast       Opcode = 0xc0
	Instanceof      Opcode = 0xc1
	Monitorenter    Opcode = 0xc2
	Monitorexit     Opcode = 0xc3
	Wide            Opcode = 0xc4
	Multianewarray  Opcode = 0xc5
	Ifnull          Opcode = 0xc6
	Ifnonnull       Opcode = 0xc7
	GotoW           Opcode = 0xc8
	JsrW            Opcode = 0xc9
)

var opcodeInfo = [...]struct {
	name  string
	shape shape
}{
	Nop:             {"nop", shapeNone},
	AconstNull:      {"aconst_null", shapeNone},
	IconstM1:        {"iconst_m1", shapeNone},
	Iconst0:         {"iconst_0", shapeNone},
	Iconst1:         {"iconst_1", shapeNone},
	Iconst2:         {"iconst_2", shapeNone},
	Iconst3:         {"iconst_3", shapeNone},
	Iconst4:         {"iconst_4", shapeNone},
	Iconst5:         {"iconst_5", shapeNone},
	Lconst0:         {"lconst_0", shapeNone},
	Lconst1:         {"lconst_1", shapeNone},
	Fconst0:         {"fconst_0", shapeNone},
	Fconst1:         {"fconst_1", shapeNone},
	Fconst2:         {"fconst_2", shapeNone},
	Dconst0:         {"dconst_0", shapeNone},
	Dconst1:         {"dconst_1", shapeNone},
	Bipush:          {"bipush", shapeByte},
	Sipush:          {"sipush", shapeShort},
	Ldc:             {"ldc", shapeConst1},
	LdcW:            {"ldc_w", shapeConst2},
	Ldc2W:           {"ldc2_w", shapeConst2},
	Iload:           {"iload", shapeLocal},
	Lload:           {"lload", shapeLocal},
	Fload:           {"fload", shapeLocal},
	Dload:           {"dload", shapeLocal},
	Aload:           {"aload", shapeLocal},
	Iload0:          {"iload_0", shapeNone},
	Iload1:          {"iload_1", shapeNone},
	Iload2:          {"iload_2", shapeNone},
	Iload3:          {"iload_3", shapeNone},
	Lload0:          {"lload_0", shapeNone},
	Lload1:          {"lload_1", shapeNone},
	Lload2:          {"lload_2", shapeNone},
	Lload3:          {"lload_3", shapeNone},
	Fload0:          {"fload_0", shapeNone},
	Fload1:          {"fload_1", shapeNone},
	Fload2:          {"fload_2", shapeNone},
	Fload3:          {"fload_3", shapeNone},
	Dload0:          {"dload_0", shapeNone},
	Dload1:          {"dload_1", shapeNone},
	Dload2:          {"dload_2", shapeNone},
	Dload3:          {"dload_3", shapeNone},
	Aload0:          {"aload_0", shapeNone},
	Aload1:          {"aload_1", shapeNone},
	Aload2:          {"aload_2", shapeNone},
	Aload3:          {"aload_3", shapeNone},
	Iaload:          {"iaload", shapeNone},
	Laload:          {"laload", shapeNone},
	Faload:          {"faload", shapeNone},
	Daload:          {"daload", shapeNone},
	Aaload:          {"aaload", shapeNone},
	Baload:          {"baload", shapeNone},
	Caload:          {"caload", shapeNone},
	Saload:          {"saload", shapeNone},
	Istore:          {"istore", shapeLocal},
	Lstore:          {"lstore", shapeLocal},
	Fstore:          {"fstore", shapeLocal},
	Dstore:          {"dstore", shapeLocal},
	Astore:          {"astore", shapeLocal},
	Istore0:         {"istore_0", shapeNone},
	Istore1:         {"istore_1", shapeNone},
	Istore2:         {"istore_2", shapeNone},
	Istore3:         {"istore_3", shapeNone},
	Lstore0:         {"lstore_0", shapeNone},
	Lstore1:         {"lstore_1", shapeNone},
	Lstore2:         {"lstore_2", shapeNone},
	Lstore3:         {"lstore_3", shapeNone},
	Fstore0:         {"fstore_0", shapeNone},
	Fstore1:         {"fstore_1", shapeNone},
	Fstore2:         {"fstore_2", shapeNone},
	Fstore3:         {"fstore_3", shapeNone},
	Dstore0:         {"dstore_0", shapeNone},
	Dstore1:         {"dstore_1", shapeNone},
	Dstore2:         {"dstore_2", shapeNone},
	Dstore3:         {"dstore_3", shapeNone},
	Astore0:         {"astore_0", shapeNone},
	Astore1:         {"astore_1", shapeNone},
	Astore2:         {"astore_2", shapeNone},
	Astore3:         {"astore_3", shapeNone},
	Iastore:         {"iastore", shapeNone},
	Lastore:         {"lastore", shapeNone},
	Fastore:         {"fastore", shapeNone},
	Dastore:         {"dastore", shapeNone},
	Aastore:         {"aastore", shapeNone},
	Bastore:         {"bastore", shapeNone},
	Castore:         {"castore", shapeNone},
	Sastore:         {"sastore", shapeNone},
	Pop:             {"pop", shapeNone},
	Pop2:            {"pop2", shapeNone},
	Dup:             {"dup", shapeNone},
	DupX1:           {"dup_x1", shapeNone},
	DupX2:           {"dup_x2", shapeNone},
	Dup2:            {"dup2", shapeNone},
	Dup2X1:          {"dup2_x1", shapeNone},
	Dup2X2:          {"dup2_x2", shapeNone},
	Swap:            {"swap", shapeNone},
	Iadd:            {"iadd", shapeNone},
	Ladd:            {"ladd", shapeNone},
	Fadd:            {"fadd", shapeNone},
	Dadd:            {"dadd", shapeNone},
	Isub:            {"isub", shapeNone},
	Lsub:            {"lsub", shapeNone},
	Fsub:            {"fsub", shapeNone},
	Dsub:            {"dsub", shapeNone},
	Imul:            {"imul", shapeNone},
	Lmul:            {"lmul", shapeNone},
	Fmul:            {"fmul", shapeNone},
	Dmul:            {"dmul", shapeNone},
	Idiv:            {"idiv", shapeNone},
	Ldiv:            {"ldiv", shapeNone},
	Fdiv:            {"fdiv", shapeNone},
	Ddiv:            {"ddiv", shapeNone},
	Irem:            {"irem", shapeNone},
	Lrem:            {"lrem", shapeNone},
	Frem:            {"frem", shapeNone},
	Drem:            {"drem", shapeNone},
	Ineg:            {"ineg", shapeNone},
	Lneg:            {"lneg", shapeNone},
	Fneg:            {"fneg", shapeNone},
	Dneg:            {"dneg", shapeNone},
	Ishl:            {"ishl", shapeNone},
	Lshl:            {"lshl", shapeNone},
	Ishr:            {"ishr", shapeNone},
	Lshr:            {"lshr", shapeNone},
	Iushr:           {"iushr", shapeNone},
	Lushr:           {"lushr", shapeNone},
	Iand:            {"iand", shapeNone},
	Land:            {"land", shapeNone},
	Ior:             {"ior", shapeNone},
	Lor:             {"lor", shapeNone},
	Ixor:            {"ixor", shapeNone},
	Lxor:            {"lxor", shapeNone},
	Iinc:            {"iinc", shapeIinc},
	I2l:             {"i2l", shapeNone},
	I2f:             {"i2f", shapeNone},
	I2d:             {"i2d", shapeNone},
	L2i:             {"l2i", shapeNone},
	L2f:             {"l2f", shapeNone},
	L2d:             {"l2d", shapeNone},
	F2i:             {"f2i", shapeNone},
	F2l:             {"f2l", shapeNone},
	F2d:             {"f2d", shapeNone},
	D2i:             {"d2i", shapeNone},
	D2l:             {"d2l", shapeNone},
	D2f:             {"d2f", shapeNone},
	I2b:             {"i2b", shapeNone},
	I2c:             {"i2c", shapeNone},
	I2s:             {"i2s", shapeNone},
	Lcmp:            {"lcmp", shapeNone},
	Fcmpl:           {"fcmpl", shapeNone},
	Fcmpg:           {"fcmpg", shapeNone},
	Dcmpl:           {"dcmpl", shapeNone},
	Dcmpg:           {"dcmpg", shapeNone},
	Ifeq:            {"ifeq", shapeBranch},
	Ifne:            {"ifne", shapeBranch},
	Iflt:            {"iflt", shapeBranch},
	Ifge:            {"ifge", shapeBranch},
	Ifgt:            {"ifgt", shapeBranch},
	Ifle:            {"ifle", shapeBranch},
	IfIcmpeq:        {"if_icmpeq", shapeBranch},
	IfIcmpne:        {"if_icmpne", shapeBranch},
	IfIcmplt:        {"if_icmplt", shapeBranch},
	IfIcmpge:        {"if_icmpge", shapeBranch},
	IfIcmpgt:        {"if_icmpgt", shapeBranch},
	IfIcmple:        {"if_icmple", shapeBranch},
	IfAcmpeq:        {"if_acmpeq", shapeBranch},
	IfAcmpne:        {"if_acmpne", shapeBranch},
	Goto:            {"goto", shapeBranch},
	Jsr:             {"jsr", shapeBranch},
	Ret:             {"ret", shapeLocal},
	Tableswitch:     {"tableswitch", shapeTableSwitch},
	Lookupswitch:    {"lookupswitch", shapeLookupSwitch},
	Ireturn:         {"ireturn", shapeNone},
	Lreturn:         {"lreturn", shapeNone},
	Freturn:         {"freturn", shapeNone},
	Dreturn:         {"dreturn", shapeNone},
	Areturn:         {"areturn", shapeNone},
	Return:          {"return", shapeNone},
	Getstatic:       {"getstatic", shapeConst2},
	Putstatic:       {"putstatic", shapeConst2},
	Getfield:        {"getfield", shapeConst2},
	Putfield:        {"putfield", shapeConst2},
	Invokevirtual:   {"invokevirtual", shapeConst2},
	Invokespecial:   {"invokespecial", shapeConst2},
	Invokestatic:    {"invokestatic", shapeConst2},
	Invokeinterface: {"invokeinterface", shapeInvokeInterface},
	Invokedynamic:   {"invokedynamic", shapeInvokeDynamic},
	New:             {"new", shapeConst2},
	Newarray:        {"newarray", shapeByte},
	Anewarray:       {"anewarray", shapeConst2},
	Arraylength:     {"arraylength", shapeNone},
	Athrow:          {"athrow", shapeNone},
	Checkcast:       {"checkcast", shapeConst2},
	Instanceof:      {"instanceof", shapeConst2},
	Monitorenter:    {"monitorenter", shapeNone},
	Monitorexit:     {"monitorexit", shapeNone},
	Wide:            {"wide", shapeWide},
	Multianewarray:  {"multianewarray", shapeMultiANewArray},
	Ifnull:          {"ifnull", shapeBranch},
	Ifnonnull:       {"ifnonnull", shapeBranch},
	GotoW:           {"goto_w", shapeBranchWide},
	JsrW:            {"jsr_w", shapeBranchWide},
}

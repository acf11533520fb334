package domain

import "fmt"

// 业务错误分类。handler 层根据类别决定如何响应，
// 错误信息本身可以直接展示给用户。

// 行级校验错误，累积返回，不会中断整个批次
type ValidationError struct {
	Row     int    `json:"row"` // 从 1 开始的行号，0 表示与具体行无关
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("第 %d 行：%s", e.Row, e.Message)
	}
	return e.Message
}

// 输入整体格式错误，中断整个批次
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return e.Message
}

// 并发修改导致的冲突，例如换班审批时班次已经被别人改动
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// 操作的对象不存在
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// 非法的状态转换，例如审批一个还没被接受的换班申请
type StateError struct {
	Message string
}

func (e *StateError) Error() string {
	return e.Message
}

// 存储层读写失败，调用方可以重试
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("存储操作失败：%v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

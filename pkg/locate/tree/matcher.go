package tree

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MatchKind 字符串匹配方式
type MatchKind int

const (
	// MatchExact 完全相等
	MatchExact MatchKind = iota
	// MatchContains 包含全部子串
	MatchContains
	// MatchRegexp 正则匹配（任意位置）
	MatchRegexp
)

// Matcher 字符串属性匹配器
type Matcher struct {
	kind  MatchKind
	exact string
	subs  []string
	re    *regexp.Regexp
	err   error
}

// Exact 完全相等
func Exact(s string) Matcher {
	return Matcher{kind: MatchExact, exact: s}
}

// Contains 值中必须出现全部子串
func Contains(subs ...string) Matcher {
	m := Matcher{kind: MatchContains, subs: append([]string(nil), subs...)}
	if len(subs) == 0 {
		m.err = fmt.Errorf("子串列表为空")
	}
	return m
}

// Regexp 正则表达式匹配；表达式无效时在构造条件时报错
func Regexp(expr string) Matcher {
	re, err := regexp.Compile(expr)
	return Matcher{kind: MatchRegexp, re: re, err: err}
}

// Kind 匹配方式
func (m Matcher) Kind() MatchKind { return m.kind }

// Err 构造错误
func (m Matcher) Err() error { return m.err }

// Match 判断值是否满足
func (m Matcher) Match(v string) bool {
	if m.err != nil {
		return false
	}
	switch m.kind {
	case MatchContains:
		for _, s := range m.subs {
			if !strings.Contains(v, s) {
				return false
			}
		}
		return true
	case MatchRegexp:
		return m.re.MatchString(v)
	default:
		return v == m.exact
	}
}

func (m Matcher) String() string {
	switch m.kind {
	case MatchContains:
		return "contains" + fmt.Sprintf("%q", m.subs)
	case MatchRegexp:
		if m.re == nil {
			return "regexp(<invalid>)"
		}
		return "regexp(" + strconv.Quote(m.re.String()) + ")"
	default:
		return strconv.Quote(m.exact)
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

package ipaddr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// 校验失败的错误类型
var (
	ErrInvalidFormat    = errors.New("IP格式无效")
	ErrOctetOutOfRange  = errors.New("IP段超出范围(0-255)")
	ErrPrefixOutOfRange = errors.New("CIDR前缀超出范围(0-32)")
)

// DefaultPrefix 未指定CIDR后缀时使用的默认前缀
const DefaultPrefix = 32

// IPCidr 表示一个带CIDR前缀的IPv4地址，构造后不可变
// 相等性为4个IP段加前缀的精确匹配，不做子网包含判断
type IPCidr struct {
	octets [4]uint8
	prefix int
}

// Normalize 清洗原始输入：去除空格和分号，缺少CIDR后缀时补上/32
// 始终返回一个字符串，合法性校验由Parse负责
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ";", "")

	if !strings.Contains(s, "/") {
		s = fmt.Sprintf("%s/%d", s, DefaultPrefix)
	}

	return s
}

// Parse 解析并校验一个IP或CIDR字符串
// 校验顺序：格式 -> IP段范围 -> 前缀范围
func Parse(s string) (IPCidr, error) {
	addr := s
	prefixPart := ""

	if idx := strings.Index(s, "/"); idx >= 0 {
		addr = s[:idx]
		prefixPart = s[idx+1:]

		// 前缀最多两位数字
		if len(prefixPart) == 0 || len(prefixPart) > 2 {
			return IPCidr{}, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
		}
		for _, c := range prefixPart {
			if c < '0' || c > '9' {
				return IPCidr{}, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
			}
		}
	}

	groups := strings.Split(addr, ".")
	if len(groups) != 4 {
		return IPCidr{}, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
	}

	var result IPCidr

	for i, g := range groups {
		if len(g) == 0 || len(g) > 3 {
			return IPCidr{}, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
		}
		for _, c := range g {
			if c < '0' || c > '9' {
				return IPCidr{}, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
			}
		}

		n, err := strconv.Atoi(g)
		if err != nil {
			return IPCidr{}, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
		}
		if n < 0 || n > 255 {
			return IPCidr{}, fmt.Errorf("%w: %s", ErrOctetOutOfRange, g)
		}

		result.octets[i] = uint8(n)
	}

	result.prefix = DefaultPrefix
	if prefixPart != "" {
		p, err := strconv.Atoi(prefixPart)
		if err != nil {
			return IPCidr{}, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
		}
		if p < 0 || p > 32 {
			return IPCidr{}, fmt.Errorf("%w: /%s", ErrPrefixOutOfRange, prefixPart)
		}
		result.prefix = p
	}

	return result, nil
}

// NormalizeAndParse 组合入口：先清洗再校验
func NormalizeAndParse(raw string) (IPCidr, error) {
	return Parse(Normalize(raw))
}

// Addr 返回不带前缀的点分十进制地址
func (c IPCidr) Addr() string {
	return fmt.Sprintf("%d.%d.%d.%d", c.octets[0], c.octets[1], c.octets[2], c.octets[3])
}

// Prefix 返回CIDR前缀长度
func (c IPCidr) Prefix() int {
	return c.prefix
}

// String 返回规范形式 a.b.c.d/p
func (c IPCidr) String() string {
	return fmt.Sprintf("%s/%d", c.Addr(), c.prefix)
}

// Equal 精确比较：4个IP段和前缀全部相同才算相等
func (c IPCidr) Equal(other IPCidr) bool {
	return c.octets == other.octets && c.prefix == other.prefix
}

package parser

import (
	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/aggexec/pkg/logutil"
	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
	"go.uber.org/zap"
)

// Parser SQL 解析器，封装 TiDB parser
type Parser struct {
	parser *parser.Parser
	logger *zap.Logger
}

// NewParser 创建新的 SQL 解析器
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{
		parser: parser.New(),
		logger: logutil.OrNop(logger),
	}
}

// ParseSQL 解析 SQL 语句，返回 AST 节点列表
func (p *Parser) ParseSQL(sql string) ([]ast.StmtNode, error) {
	stmtNodes, warnings, err := p.parser.ParseSQL(sql)
	if err != nil {
		return nil, errors.Wrap(err, "解析 SQL 失败")
	}
	for _, warn := range warnings {
		p.logger.Warn("parse warning", zap.String("sql", sql), zap.Error(warn))
	}
	return stmtNodes, nil
}

// ParseOneStmt 解析单条 SQL 语句
func (p *Parser) ParseOneStmt(sql string) (ast.StmtNode, error) {
	stmts, err := p.ParseSQL(sql)
	if err != nil {
		return nil, err
	}
	switch len(stmts) {
	case 0:
		return nil, errors.New("未解析到 SQL 语句")
	case 1:
		return stmts[0], nil
	default:
		return nil, errors.Newf("expected one statement, got %d", len(stmts))
	}
}

package models

const (
	RomanHeadingRegex   = `^([IVXLCDM]{1,4})\.\s+(\S.{3,79})$`
	KeywordHeadingRegex = `^((?i:chương|phần|mục|điều))\s+([IVXLCDM]+|\d+)(?:[.:)\s]|$)`
	SentenceEndRegex    = `[.?!]\s+`

	WholeDocumentSection = "Toàn văn"
	PreambleSection      = "Mở đầu"
	SubsectionLabel      = "Đoạn %d"
	TableSection         = "Bảng %d"
	TablePageSection     = "Bảng %d trang %d"
	TableEmptySubject    = "Nội dung"

	// NoRelevantContent is the only context entry returned when no stored
	// chunk clears the similarity threshold.
	NoRelevantContent = "[!] Không có đoạn tài liệu nào gần với câu hỏi."
	NoMatchAnswer     = "❗ Không tìm thấy nội dung phù hợp trong tài liệu."
	EmptyQuestion     = "Câu hỏi trống."
	LLMErrorAnswer    = "❌ Không kết nối được LM Studio: %v"
)

var (
	SystemInstruction = "Bạn là một trợ lý ảo nghiêm túc, chỉ trả lời dựa trên các tài liệu được cung cấp. " +
		"Không được suy diễn, không được thêm thông tin ngoài context. " +
		"Nếu không có thông tin trong tài liệu, hãy trả lời: 'Tôi không tìm thấy nội dung này trong tài liệu.' " +
		"Tránh mọi khái quát hoặc tổng hợp vượt quá nội dung được cung cấp. " +
		"Nếu có thể, hãy trích dẫn số thứ tự đoạn tài liệu theo dạng [1], [2]... để minh bạch nguồn thông tin."

	UserPromptTemplate = `--- TÀI LIỆU ---
%s

--- CÂU HỎI ---
%s

--- YÊU CẦU ---
- Trả lời rõ ràng, đúng trọng tâm, dựa vào nội dung tài liệu.
- Không thêm bình luận chủ quan hoặc giả định.
- Nếu câu trả lời có thể trích dẫn từ tài liệu, hãy ghi số đoạn tham chiếu theo định dạng [1], [2]... Mỗi ý đều xuống dòng
- Nếu không đủ dữ kiện, hãy nói rõ là tài liệu không có thông tin đó.`

	RelatedPromptTemplate = `Từ câu hỏi: "%s", hãy tạo ra 6–8 câu hỏi mở rộng có liên quan,
ưu tiên tập trung vào giải pháp, trách nhiệm, phương pháp triển khai.
Yêu cầu:
- Chỉ xuất ra danh sách câu hỏi.
- Mỗi câu nằm trên một dòng, không đánh số, không gạch đầu dòng.
- Không ghi phần mở đầu, không lặp lại câu gốc.
- Văn phong rõ ràng, nghiêm túc, ngắn gọn.`
)
